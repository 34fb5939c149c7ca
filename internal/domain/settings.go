package domain

import (
	"github.com/shopspring/decimal"
)

type AprMode string

const (
	AprHide                    AprMode = "Hide"
	AprDisplayOnly             AprMode = "DisplayOnly"
	AprCardPurchasesOnly       AprMode = "CardPurchasesOnly"
	AprCardAndAccountPurchases AprMode = "CardAndAccountPurchases"
)

type PassedDeadlineOffersMode string

const (
	DeadlineHide                    PassedDeadlineOffersMode = "Hide"
	DeadlineDisplayOnly             PassedDeadlineOffersMode = "DisplayOnly"
	DeadlineCardPurchasesOnly       PassedDeadlineOffersMode = "CardPurchasesOnly"
	DeadlineCardAndAccountPurchases PassedDeadlineOffersMode = "CardAndAccountPurchases"
)

// SettingsOverride is a persisted agent or agency record. Nil fields carry no opinion.
type SettingsOverride struct {
	EnabledSuppliers            []Supplier                `json:"enabledSuppliers"`
	AprMode                     *AprMode                  `json:"aprMode,omitempty"`
	PassedDeadlineOffersMode    *PassedDeadlineOffersMode `json:"passedDeadlineOffersMode,omitempty"`
	IsSupplierVisible           *bool                     `json:"isSupplierVisible,omitempty"`
	IsDirectContractFlagVisible *bool                     `json:"isDirectContractFlagVisible,omitempty"`
	IsMarkupDisabled            *bool                     `json:"isMarkupDisabled,omitempty"`
}

type EffectiveSearchSettings struct {
	EnabledSuppliers            []Supplier               `json:"enabledSuppliers"`
	AprMode                     AprMode                  `json:"aprMode"`
	PassedDeadlineOffersMode    PassedDeadlineOffersMode `json:"passedDeadlineOffersMode"`
	IsSupplierVisible           bool                     `json:"isSupplierVisible"`
	IsDirectContractFlagVisible bool                     `json:"isDirectContractFlagVisible"`
	IsMarkupDisabled            bool                     `json:"isMarkupDisabled"`
}

type MarkupScope string

const (
	MarkupGlobal MarkupScope = "global"
	MarkupAgency MarkupScope = "agency"
	MarkupAgent  MarkupScope = "agent"
)

type MarkupPolicy struct {
	ID      int64
	Scope   MarkupScope
	ScopeID int64
	Percent decimal.Decimal
}
