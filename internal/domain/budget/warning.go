package budget

// Warning is a financial caution attached to an analysis
type Warning string

const (
	WarningExceedsSalary       Warning = "exceeds_salary"
	WarningLargeShareOfSalary  Warning = "large_share_of_salary"
	WarningInsufficientSavings Warning = "insufficient_savings"
	WarningLongSavingsPlan     Warning = "long_savings_plan"
	WarningSavingsPlan         Warning = "savings_plan"
	WarningShortSavingsPlan    Warning = "short_savings_plan"
	WarningDrainsSavings       Warning = "drains_savings"
	WarningThinCushion         Warning = "thin_cushion"
)

var warningText = map[Warning]struct{ en, ru string }{
	WarningExceedsSalary:       {"This is a very large purchase that needs special attention", "Это очень крупная покупка, требующая особого внимания"},
	WarningLargeShareOfSalary:  {"The purchase will noticeably affect your budget", "Покупка значительно повлияет на бюджет"},
	WarningInsufficientSavings: {"Your savings do not cover this purchase", "Недостаточно накоплений"},
	WarningLongSavingsPlan:     {"Saving up will take more than three months", "Потребуется более трёх месяцев накопления"},
	WarningSavingsPlan:         {"Saving up will take one to three months", "Потребуется от одного до трёх месяцев накопления"},
	WarningShortSavingsPlan:    {"You can save up within a month", "Можно накопить за месяц"},
	WarningDrainsSavings:       {"Little will be left for unexpected expenses", "После покупки останется мало средств на непредвиденные расходы"},
	WarningThinCushion:         {"Keep a cushion of at least one monthly income", "Рекомендуется иметь подушку минимум в 1 месячный доход"},
}

// Text returns the user-facing message in the given language ("ru" or
// anything else for English).
func (w Warning) Text(lang string) string {
	t, ok := warningText[w]
	if !ok {
		return string(w)
	}
	if lang == "ru" {
		return t.ru
	}
	return t.en
}
