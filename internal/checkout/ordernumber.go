package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
	"time"
)

// OrderNumbers generates human-facing order numbers: prefix, UTC date, then
// eight upper-case hex characters from crypto/rand.
type OrderNumbers struct {
	prefix string
	now    func() time.Time
	rand   io.Reader
}

// NewOrderNumbers builds a generator for prefix.
func NewOrderNumbers(prefix string) *OrderNumbers {
	return &OrderNumbers{
		prefix: strings.ToUpper(strings.TrimSpace(prefix)),
		now:    time.Now,
		rand:   rand.Reader,
	}
}

// Next returns a fresh order number.
func (g *OrderNumbers) Next() (string, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", err
	}
	return g.prefix + g.now().UTC().Format("20060102") + strings.ToUpper(hex.EncodeToString(buf)), nil
}
