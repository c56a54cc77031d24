package upvote

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName holds the signed device marker.
	CookieName = "upvoted"

	markerTTL = 365 * 24 * time.Hour
	// maxMarked keeps the cookie below browser size limits; the oldest
	// entries fall off first.
	maxMarked = 50
)

// DeviceState is what one browser remembers about its own upvotes. It is a
// deterrent held by the client, not an authorization boundary: clearing it
// allows voting again.
type DeviceState struct {
	Upvoted []string
}

// Has reports whether the device already upvoted the business.
func (d DeviceState) Has(businessID string) bool {
	for _, id := range d.Upvoted {
		if id == businessID {
			return true
		}
	}
	return false
}

// With returns a copy that also lists businessID.
func (d DeviceState) With(businessID string) DeviceState {
	if d.Has(businessID) {
		return d
	}
	ids := append(append([]string{}, d.Upvoted...), businessID)
	if len(ids) > maxMarked {
		ids = ids[len(ids)-maxMarked:]
	}
	return DeviceState{Upvoted: ids}
}

type markerClaims struct {
	Upvoted []string `json:"upv"`
	jwt.RegisteredClaims
}

// MarkerCodec signs and reads the device marker cookie.
type MarkerCodec struct {
	key []byte
	now func() time.Time
}

func NewMarkerCodec(key []byte) *MarkerCodec {
	return &MarkerCodec{key: key, now: time.Now}
}

// Encode signs the state into a compact token.
func (m *MarkerCodec) Encode(state DeviceState) (string, error) {
	if len(m.key) == 0 {
		return "", errors.New("upvote marker key is not configured")
	}
	now := m.now()
	claims := markerClaims{
		Upvoted: state.Upvoted,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(markerTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Decode reads a token. Missing, expired or tampered tokens yield an empty
// state.
func (m *MarkerCodec) Decode(token string) DeviceState {
	if token == "" || len(m.key) == 0 {
		return DeviceState{}
	}
	claims := &markerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return DeviceState{}
	}
	return DeviceState{Upvoted: claims.Upvoted}
}
