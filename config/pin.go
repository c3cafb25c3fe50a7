package config

import (
	"errors"
	"fmt"
)

// ErrPinNotAllowed is returned for a PIN that is technically eight digits
// but trivially guessable (all-same-digit or sequential).
var ErrPinNotAllowed = errors.New("config: pin sequence not allowed")

// ErrPinInvalidDigit is returned when a PIN byte is not in 0-9.
var ErrPinInvalidDigit = errors.New("config: pin contains a non-digit")

// PIN is the 8-digit code a HomeKit pair-setup client must present,
// formatted in SRP's username/password exchange as "DDD-DD-DDD".
type PIN [8]byte

var invalidPINs = [][8]byte{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{1, 1, 1, 1, 1, 1, 1, 1},
	{2, 2, 2, 2, 2, 2, 2, 2},
	{3, 3, 3, 3, 3, 3, 3, 3},
	{4, 4, 4, 4, 4, 4, 4, 4},
	{5, 5, 5, 5, 5, 5, 5, 5},
	{6, 6, 6, 6, 6, 6, 6, 6},
	{7, 7, 7, 7, 7, 7, 7, 7},
	{8, 8, 8, 8, 8, 8, 8, 8},
	{9, 9, 9, 9, 9, 9, 9, 9},
	{1, 2, 3, 4, 5, 6, 7, 8},
	{8, 7, 6, 5, 4, 3, 2, 1},
}

// NewPIN validates digits and returns a PIN, rejecting non-digit bytes and
// the handful of sequences real AirPlay receivers also refuse to generate.
func NewPIN(digits [8]byte) (PIN, error) {
	for _, d := range digits {
		if d > 9 {
			return PIN{}, ErrPinInvalidDigit
		}
	}
	for _, bad := range invalidPINs {
		if digits == bad {
			return PIN{}, ErrPinNotAllowed
		}
	}
	return PIN(digits), nil
}

// String renders the PIN in the "DDD-DD-DDD" form used as the SRP password.
func (p PIN) String() string {
	return fmt.Sprintf("%d%d%d-%d%d-%d%d%d", p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7])
}
