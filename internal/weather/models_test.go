package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accessroute/accessroute/internal/weather"
)

func TestConditionElevatedRisk(t *testing.T) {
	tests := []struct {
		condition weather.Condition
		elevated  bool
	}{
		{weather.ConditionClear, false},
		{weather.ConditionClouds, false},
		{weather.ConditionRain, true},
		{weather.ConditionSnow, true},
		{weather.ConditionExtreme, true},
		{weather.ConditionOther, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.condition), func(t *testing.T) {
			assert.Equal(t, tt.elevated, tt.condition.ElevatedRisk())
		})
	}
}
