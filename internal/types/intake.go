// Package types provides type definitions for structured data used throughout the letter fulfillment system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// IntakeRecord represents a validated patient intake form submission.
// It is passed by value through the pipeline and never mutated or persisted.
type IntakeRecord struct {
	Age                 int      `json:"age" validate:"required,gt=0"`
	Sex                 string   `json:"sex,omitempty"`
	Administrator       string   `json:"administrator" validate:"required"`
	State               string   `json:"state" validate:"required,len=2"`
	DiagnosedConditions []string `json:"diagnosed_conditions"`
	FamilyHistory       []string `json:"family_history"`
	RiskFactors         []string `json:"risk_factors"`
	PreventiveGoals     string   `json:"preventive_goals,omitempty"`
	ProductName         string   `json:"product_name" validate:"required"`
	BusinessName        string   `json:"business_name" validate:"required"`
}

// PatientInfo carries the display fields the assembly and dispatch stages need.
// Kept separate from IntakeRecord so the assembled document never sees raw intake.
type PatientInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Administrator string `json:"administrator"`
	ProductName   string `json:"product_name"`
	BusinessName  string `json:"business_name"`
}
