package subscription

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequency_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		frequency Frequency
		expected  bool
	}{
		{name: "ValidHourly", frequency: FrequencyHourly, expected: true},
		{name: "ValidDaily", frequency: FrequencyDaily, expected: true},
		{name: "InvalidFrequency", frequency: FrequencyUnknown, expected: false},
		{name: "OutOfRange", frequency: Frequency(42), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.frequency.IsValid())
		})
	}
}

func TestFrequencyFromString(t *testing.T) {
	assert.Equal(t, FrequencyHourly, FrequencyFromString("hourly"))
	assert.Equal(t, FrequencyDaily, FrequencyFromString("daily"))
	assert.Equal(t, FrequencyUnknown, FrequencyFromString("weekly"))
	assert.Equal(t, FrequencyUnknown, FrequencyFromString(""))

	for _, f := range Frequencies {
		assert.Equal(t, f, FrequencyFromString(f.String()))
	}
}

func TestFrequency_JSON(t *testing.T) {
	type payload struct {
		Frequency Frequency `json:"frequency"`
	}

	data, err := json.Marshal(payload{Frequency: FrequencyDaily})
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":"daily"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"frequency":"hourly"}`), &decoded))
	assert.Equal(t, FrequencyHourly, decoded.Frequency)

	require.NoError(t, json.Unmarshal([]byte(`{"frequency":"monthly"}`), &decoded))
	assert.Equal(t, FrequencyUnknown, decoded.Frequency)

	assert.Error(t, json.Unmarshal([]byte(`{"frequency":1}`), &decoded))
}

func TestSubscription_State(t *testing.T) {
	sub := &Subscription{Email: "a@x.com", City: "Berlin", Frequency: FrequencyHourly}
	assert.Equal(t, StateCreated, sub.State())
	assert.False(t, sub.IsConfirmed())

	sub.Confirmed = true
	assert.Equal(t, StateActive, sub.State())
	assert.Equal(t, "active", sub.State().String())
}
