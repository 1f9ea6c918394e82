package models

// Requests for forecasting HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Pair            string `query:"pair" json:"pair" validate:"required"`
	Days            int    `query:"days" json:"days" validate:"gte=1,lte=365"`
	UseBusinessDays bool   `query:"use_business_days" json:"use_business_days"`
	Timezone        string `query:"timezone" json:"timezone" validate:"max=64"`
	Market          string `query:"market" json:"market" validate:"max=64"`
	At              string `query:"at" json:"at"`
}

type PredictMultiRequest struct {
	Pair            string `query:"pair" json:"pair" validate:"required"`
	Days            int    `query:"days" json:"days" validate:"gte=1,lte=30"`
	UseBusinessDays bool   `query:"use_business_days" json:"use_business_days"`
	Timezone        string `query:"timezone" json:"timezone" validate:"max=64"`
	Market          string `query:"market" json:"market" validate:"max=64"`
	At              string `query:"at" json:"at"`
}
