package domain

// LedgerEffect описывает влияние перехода статуса на складской журнал.
type LedgerEffect int

const (
	// LedgerEffectNone — переход не трогает склад.
	LedgerEffectNone LedgerEffect = iota
	// LedgerEffectCredit — товары возвращаются на склад (отмена активного заказа).
	LedgerEffectCredit
	// LedgerEffectDebit — товары повторно списываются со склада (реактивация отменённого заказа).
	LedgerEffectDebit
)

// String возвращает имя эффекта для логов.
func (e LedgerEffect) String() string {
	switch e {
	case LedgerEffectCredit:
		return "credit"
	case LedgerEffectDebit:
		return "debit"
	default:
		return "none"
	}
}

type statusPair struct {
	previous OrderStatus
	next     OrderStatus
}

// transitionEffects — явная таблица переходов вместо разбросанных по коду условий.
// Отмена доставленного заказа склад не кредитует: товар уже у покупателя.
var transitionEffects = map[statusPair]LedgerEffect{
	{OrderStatusPending, OrderStatusCancelled}: LedgerEffectCredit,
	{OrderStatusShipped, OrderStatusCancelled}: LedgerEffectCredit,

	{OrderStatusCancelled, OrderStatusPending}:   LedgerEffectDebit,
	{OrderStatusCancelled, OrderStatusShipped}:   LedgerEffectDebit,
	{OrderStatusCancelled, OrderStatusDelivered}: LedgerEffectDebit,
}

// TransitionEffect возвращает складской эффект перехода previous → next.
// Переходы, отсутствующие в таблице, допустимы и склад не затрагивают.
func TransitionEffect(previous, next OrderStatus) LedgerEffect {
	return transitionEffects[statusPair{previous: previous, next: next}]
}
