package analyzer

import (
	"github.com/anime-shed/skin-advisor-go/pkg/models"
)

// Report is the shared quality report model.
type Report = models.QualityReport

// metrics holds internal calculation results
type metrics struct {
	avgLuminance, avgSaturation float64
	avgR, avgG, avgB            float64
}

func (m metrics) channels() [3]float64 {
	return [3]float64{m.avgR, m.avgG, m.avgB}
}
