// Package entitlement содержит чистую логику начисления доступа к карте:
// таблицу тарифов по сумме платежа, продление срока действия доступа
// и нормализацию состояния пользователя по инвариантам.
//
// Вся остальная система вызывает эти функции, своих проверок не дублирует.
package entitlement

import (
	"fmt"
	"time"

	"github.com/floodsense/backend/internal/models"
)

// Tier описывает тариф: порог суммы и число дней продления.
type Tier struct {
	MinAmount int64  // Минимальная сумма платежа (в минимальных единицах)
	Days      int    // Число дней продления доступа
	Name      string // Название пакета для описания транзакции
}

// tiers — таблица тарифов, отсортирована по убыванию порога.
// Выбирается первый подходящий тариф.
var tiers = []Tier{
	{MinAmount: 60000, Days: 180, Name: "Goi 6 thang"},
	{MinAmount: 30000, Days: 90, Name: "Goi 3 thang"},
	{MinAmount: 10000, Days: 30, Name: "Goi 1 thang"},
	{MinAmount: 2000, Days: 2, Name: "Goi 2 ngay"},
	{MinAmount: 1000, Days: 1, Name: "Goi 1 ngay"},
}

// ExtensionFor возвращает тариф для указанной суммы платежа.
// Для суммы ниже минимального порога возвращается нулевой тариф:
// платёж принимается, но доступ не продлевается.
func ExtensionFor(amount int64) Tier {
	for _, t := range tiers {
		if amount >= t.MinAmount {
			return t
		}
	}
	return Tier{}
}

// Extend вычисляет новую дату истечения доступа. Если текущий срок
// ещё не истёк, оставшееся время сохраняется и дни добавляются к нему;
// истёкший или отсутствующий срок отсчитывается заново от now.
func Extend(current *time.Time, days int, now time.Time) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.AddDate(0, 0, days)
}

// Description формирует описание транзакции покупки доступа.
func (t Tier) Description(expiry time.Time) string {
	return fmt.Sprintf("%s - gia han den %s", t.Name, expiry.Format("02/01/2006"))
}

// Normalize приводит пользователя к инвариантам доменной модели:
//   - администратор всегда имеет бессрочный доступ к карте;
//   - истёкший срок доступа снимает флаг и сбрасывает статус запроса.
//
// Возвращает true, если состояние изменилось и его нужно сохранить.
// Вызывается на каждом пути чтения, возвращающем состояние пользователя.
func Normalize(u *models.User, now time.Time) bool {
	if u.Role == models.RoleAdmin {
		if u.HasMapAccess && u.UpgradeStatus == models.UpgradeApproved && u.MapAccessExpiry == nil {
			return false
		}
		u.HasMapAccess = true
		u.UpgradeStatus = models.UpgradeApproved
		u.MapAccessExpiry = nil
		if u.MapAccessGrantedAt == nil {
			u.MapAccessGrantedAt = &now
		}
		return true
	}
	if u.HasMapAccess && u.MapAccessExpiry != nil && now.After(*u.MapAccessExpiry) {
		u.HasMapAccess = false
		u.UpgradeStatus = models.UpgradeNone
		return true
	}
	return false
}
