// Package types provides type definitions for structured data used throughout the lead personalization system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// Persona is the lead's functional role bucket
type Persona string

// Supported personas
const (
	PersonaBusinessLeader Persona = "Business Leader"
	PersonaIT             Persona = "IT"
	PersonaFinance        Persona = "Finance"
	PersonaOperations     Persona = "Operations"
	PersonaSecurity       Persona = "Security"
)

// AllPersonas returns every supported persona in declaration order
func AllPersonas() []Persona {
	return []Persona{PersonaBusinessLeader, PersonaIT, PersonaFinance, PersonaOperations, PersonaSecurity}
}

// ParsePersona matches a persona name case-insensitively
func ParsePersona(s string) (Persona, error) {
	norm := strings.TrimSpace(s)
	for _, p := range AllPersonas() {
		if strings.EqualFold(string(p), norm) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown persona %q", s)
}

// BuyerStage is where the lead sits in the purchasing journey
type BuyerStage string

// Supported buyer stages
const (
	StageAwareness  BuyerStage = "awareness"
	StageEvaluation BuyerStage = "evaluation"
	StageDecision   BuyerStage = "decision"
)

// AllBuyerStages returns every supported buyer stage in journey order
func AllBuyerStages() []BuyerStage {
	return []BuyerStage{StageAwareness, StageEvaluation, StageDecision}
}

// ParseBuyerStage matches a buyer stage case-insensitively
func ParseBuyerStage(s string) (BuyerStage, error) {
	norm := strings.TrimSpace(s)
	for _, st := range AllBuyerStages() {
		if strings.EqualFold(string(st), norm) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown buyer stage %q", s)
}

// CompanySize is the bucket derived from a company's employee count
type CompanySize string

// Company size buckets
const (
	SizeStartup    CompanySize = "startup"
	SizeSMB        CompanySize = "SMB"
	SizeMidMarket  CompanySize = "mid-market"
	SizeEnterprise CompanySize = "enterprise"
)

// IntentSignal is the provider's estimate of how far along a buying cycle the company is
type IntentSignal string

// Intent signals
const (
	IntentEarly IntentSignal = "early"
	IntentMid   IntentSignal = "mid"
	IntentLate  IntentSignal = "late"
)

// ParseIntentSignal accepts only the known signals; anything else returns false
func ParseIntentSignal(s string) (IntentSignal, bool) {
	switch IntentSignal(strings.ToLower(strings.TrimSpace(s))) {
	case IntentEarly:
		return IntentEarly, true
	case IntentMid:
		return IntentMid, true
	case IntentLate:
		return IntentLate, true
	}
	return "", false
}
