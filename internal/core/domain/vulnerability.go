package domain

import (
	"fmt"
	"time"
)

// VulnerabilityLevel is the triage tier. Wire values are kept exactly as the
// deployed service reports them.
type VulnerabilityLevel string

const (
	LevelLow    VulnerabilityLevel = "BAJA"
	LevelMedium VulnerabilityLevel = "MEDIA"
	LevelHigh   VulnerabilityLevel = "ALTA"
)

// ageThreshold is exclusive: a patient must be strictly older than 56 whole
// years for the age factor to trigger.
const ageThreshold = 56

// VulnerabilityAssessment is the result of scoring a health profile. It is
// recomputed on demand and never persisted on its own; the profile carries a
// snapshot of level and priority taken at registration.
type VulnerabilityAssessment struct {
	AgeYears        int                `json:"edad_actual"`
	RiskFactorCount int                `json:"factores_criticos"`
	Reasons         []string           `json:"motivos"`
	Level           VulnerabilityLevel `json:"nivel_vulnerabilidad"`
	Priority        VulnerabilityLevel `json:"prioridad_atencion"`
}

// ComputeVulnerability scores a health profile as of now. It is a pure
// function: identical inputs produce identical assessments.
//
// The formula counts four factors in a fixed order (age, zone, income, COVID
// hospitalization) and maps the count to a tier: >=3 ALTA, >=1 MEDIA, else
// BAJA. HealthAccess and the remaining COVID flags are collected but carry no
// weight; this mirrors the deployed formula and is deliberate.
func ComputeVulnerability(p HealthProfile, now time.Time) (VulnerabilityAssessment, error) {
	if !p.Complete() {
		return VulnerabilityAssessment{}, ErrProfileIncomplete
	}

	age := wholeYears(p.BirthDate, now)

	var a VulnerabilityAssessment
	a.AgeYears = age
	a.Reasons = []string{}

	if age > ageThreshold {
		a.RiskFactorCount++
		a.Reasons = append(a.Reasons, fmt.Sprintf("Edad > 56 años (edad actual: %d)", age))
	}
	if p.Zone == ZoneRural || p.Zone == ZoneHardReach {
		a.RiskFactorCount++
		a.Reasons = append(a.Reasons, fmt.Sprintf("Zona %s", p.Zone))
	}
	if p.EconomicSituation == EconomicLimited {
		a.RiskFactorCount++
		a.Reasons = append(a.Reasons, "Ingresos limitados")
	}
	if p.Covid.Hospitalized {
		a.RiskFactorCount++
		a.Reasons = append(a.Reasons, "Hospitalización por COVID-19")
	}

	switch {
	case a.RiskFactorCount >= 3:
		a.Level = LevelHigh
	case a.RiskFactorCount >= 1:
		a.Level = LevelMedium
	default:
		a.Level = LevelLow
	}
	a.Priority = a.Level

	return a, nil
}

// wholeYears computes a calendar-correct age: one year is subtracted when the
// birthday has not yet occurred this year.
func wholeYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
