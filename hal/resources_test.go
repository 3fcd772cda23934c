//go:build !tinygo

package hal

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeOnlyOnce(t *testing.T) {
	p, err := Take()
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Sim())

	_, err = Take()
	assert.ErrorIs(t, err, ErrClaimViolation)
}

func TestSplitConsumesRegistry(t *testing.T) {
	p := newPeripherals(newHostBoard())
	_, err := Split(p)
	require.NoError(t, err)

	_, err = Split(p)
	assert.ErrorIs(t, err, ErrClaimViolation)

	_, err = Split(nil)
	assert.ErrorIs(t, err, ErrClaimViolation)
}

func claimsOf(v reflect.Value) map[*claim]string {
	out := make(map[*claim]string)
	typ := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if !typ.Field(i).IsExported() {
			continue
		}
		if c, ok := v.Field(i).Interface().(claimable); ok {
			out[c.token()] = typ.Field(i).Name
		}
	}
	return out
}

func TestPartitionIsDisjointAndComplete(t *testing.T) {
	p := newPeripherals(newHostBoard())
	r, err := Split(p)
	require.NoError(t, err)

	grouped := make(map[*claim]string)
	rv := reflect.ValueOf(r)
	for i := 0; i < rv.NumField(); i++ {
		group := rv.Type().Field(i).Name
		for c, field := range claimsOf(rv.Field(i)) {
			if prev, dup := grouped[c]; dup {
				t.Fatalf("%s.%s aliases %s", group, field, prev)
			}
			grouped[c] = group + "." + field
		}
	}

	withheld := map[string]bool{
		"GPIO0": true, "GPIO3": true, "GPIO8": true, "GPIO46": true,
		"I2S0": true, "DMACh1": true,
		"SYSTEM": true, "TIMG0": true, "LPWR": true,
	}
	for c, name := range claimsOf(reflect.ValueOf(*p)) {
		_, inGroup := grouped[c]
		if withheld[name] {
			assert.False(t, inGroup, "%s must be withheld", name)
			assert.False(t, c.owned(), "%s must stay unclaimed", name)
			continue
		}
		assert.True(t, inGroup, "%s is not in any group", name)
		assert.True(t, c.owned(), "%s was not bound by Split", name)
	}
}

func TestGroupsConvertOnce(t *testing.T) {
	r, _ := newSimBoard(t)

	_, err := NewButtons(r.Buttons)
	require.NoError(t, err)
	_, err = NewButtons(r.Buttons)
	assert.ErrorIs(t, err, ErrClaimViolation)

	_, err = NewBacklight(r.Backlight)
	require.NoError(t, err)
	_, err = NewBacklight(r.Backlight)
	assert.ErrorIs(t, err, ErrClaimViolation)

	_, err = NewVibration(r.Vibration)
	require.NoError(t, err)
	_, err = NewVibration(r.Vibration)
	assert.ErrorIs(t, err, ErrClaimViolation)

	_, err = NewLeds(r.Leds, LedConfig{})
	require.NoError(t, err)
	_, err = NewLeds(r.Leds, LedConfig{})
	assert.ErrorIs(t, err, ErrClaimViolation)

	_, err = NewDisplay(r.Display, DisplayConfig{})
	require.NoError(t, err)
	_, err = NewDisplay(r.Display, DisplayConfig{})
	assert.ErrorIs(t, err, ErrClaimViolation)
}

func TestForgedGroupRejected(t *testing.T) {
	_, err := NewBacklight(BacklightResources{})
	assert.ErrorIs(t, err, ErrClaimViolation)
	_, err = NewDisplay(DisplayResources{}, DisplayConfig{})
	assert.ErrorIs(t, err, ErrClaimViolation)
}

func TestSwappedGroupFieldRejected(t *testing.T) {
	r, sim := newSimBoard(t)

	bl, err := NewBacklight(r.Backlight)
	require.NoError(t, err)

	r.Vibration.Pin = r.Backlight.Pin
	_, err = NewVibration(r.Vibration)
	require.ErrorIs(t, err, ErrClaimViolation)
	assert.Contains(t, err.Error(), "GPIO19")

	bl.On()
	assert.True(t, sim.Backlight(), "backlight line must stay with the backlight")

	r.Display.RST = r.Buttons.A
	_, err = NewDisplay(r.Display, DisplayConfig{})
	require.ErrorIs(t, err, ErrClaimViolation)

	// A rejected group is not consumed: the untouched button group still
	// converts and A is still an input.
	bs, err := NewButtons(r.Buttons)
	require.NoError(t, err)
	sim.Press(ButtonA)
	assert.True(t, bs.A.Pressed())
}

func TestGroupRejectsPeripheralFromAnotherRegistry(t *testing.T) {
	r, _ := newSimBoard(t)
	other, _ := newSimBoard(t)

	r.Leds.Data = other.Leds.Data
	_, err := NewLeds(r.Leds, LedConfig{})
	assert.ErrorIs(t, err, ErrClaimViolation)
}
