package config

import "sort"

// ColumnsConfig maps the column roles the pipeline recognizes to the labels
// actually used by the deployment's source files. The labels are
// locale-specific business terms, not part of any portable contract; the
// defaults match the current export format of the freight system.
type ColumnsConfig struct {
	Subscription SubscriptionColumns `yaml:"subscription" envconfig:"SUBSCRIPTION"`
	Ledger       LedgerColumns       `yaml:"ledger" envconfig:"LEDGER"`
}

// SubscriptionColumns names the required columns of the subscription dataset.
type SubscriptionColumns struct {
	Department    string `yaml:"department" envconfig:"DEPARTMENT"`
	Customer      string `yaml:"customer" envconfig:"CUSTOMER"`
	ContractPrice string `yaml:"contract_price" envconfig:"CONTRACT_PRICE"`
	MarginFlag    string `yaml:"margin_flag" envconfig:"MARGIN_FLAG"`
	Profit        string `yaml:"profit" envconfig:"PROFIT"`
	Revenue       string `yaml:"revenue" envconfig:"REVENUE"`
	BusinessLine  string `yaml:"business_line" envconfig:"BUSINESS_LINE"`
	BusinessMonth string `yaml:"business_month" envconfig:"BUSINESS_MONTH"`
}

// Required returns the labels that must be present in the subscription
// dataset, in reporting order. The business month column must exist, but it
// may be entirely empty; empty values fall back to the current month.
func (c SubscriptionColumns) Required() []string {
	return []string{
		c.Department,
		c.Customer,
		c.ContractPrice,
		c.MarginFlag,
		c.Profit,
		c.Revenue,
		c.BusinessLine,
		c.BusinessMonth,
	}
}

// LedgerColumns names the required columns of the reconciliation ledger.
type LedgerColumns struct {
	LegalDepartment string `yaml:"legal_department" envconfig:"LEGAL_DEPARTMENT"`
	Customer        string `yaml:"customer" envconfig:"CUSTOMER"`
	Alias           string `yaml:"alias" envconfig:"ALIAS"`
	Indicator       string `yaml:"indicator" envconfig:"INDICATOR"`
	Amount          string `yaml:"amount" envconfig:"AMOUNT"`
	RateTicket      string `yaml:"rate_ticket" envconfig:"RATE_TICKET"`
	Currency        string `yaml:"currency" envconfig:"CURRENCY"`
}

// Required returns the labels that must be present in the ledger dataset.
func (c LedgerColumns) Required() []string {
	return []string{
		c.LegalDepartment,
		c.Customer,
		c.Alias,
		c.Indicator,
		c.Amount,
		c.RateTicket,
		c.Currency,
	}
}

func defaultColumns() ColumnsConfig {
	return ColumnsConfig{
		Subscription: SubscriptionColumns{
			Department:    "二级部门",
			Customer:      "委托客户",
			ContractPrice: "客户约价",
			MarginFlag:    "是否低负",
			Profit:        "未税人民币总毛利",
			Revenue:       "未税人民币总收入",
			BusinessLine:  "业务大类名称",
			BusinessMonth: "业务月份",
		},
		Ledger: LedgerColumns{
			LegalDepartment: "法人部门",
			Customer:        "委托客户",
			Alias:           "别名",
			Indicator:       "应收应付",
			Amount:          "本位币金额",
			RateTicket:      "费率单号",
			Currency:        "币种",
		},
	}
}

// missingLabels reports the role names whose label is empty after merging all
// configuration sources.
func (c ColumnsConfig) missingLabels() []string {
	roles := map[string]string{
		"subscription.department":     c.Subscription.Department,
		"subscription.customer":       c.Subscription.Customer,
		"subscription.contract_price": c.Subscription.ContractPrice,
		"subscription.margin_flag":    c.Subscription.MarginFlag,
		"subscription.profit":         c.Subscription.Profit,
		"subscription.revenue":        c.Subscription.Revenue,
		"subscription.business_line":  c.Subscription.BusinessLine,
		"subscription.business_month": c.Subscription.BusinessMonth,
		"ledger.legal_department":     c.Ledger.LegalDepartment,
		"ledger.customer":             c.Ledger.Customer,
		"ledger.alias":                c.Ledger.Alias,
		"ledger.indicator":            c.Ledger.Indicator,
		"ledger.amount":               c.Ledger.Amount,
		"ledger.rate_ticket":          c.Ledger.RateTicket,
		"ledger.currency":             c.Ledger.Currency,
	}

	var missing []string
	for role, label := range roles {
		if label == "" {
			missing = append(missing, role)
		}
	}
	sort.Strings(missing)
	return missing
}
