// Package idgenerator contains the default [domain.IDGenerator]
// implementation using base64-encoded random bytes, plus a UUID variant.
package idgenerator

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/google/uuid"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
)

// IDGenerator implements [domain.IDGenerator].
type IDGenerator struct {
	reader io.Reader
}

// NewIDGenerator returns a new implementation of domain.IDGenerator.
func NewIDGenerator(opts ...Option) domain.IDGenerator {
	i := IDGenerator{
		reader: rand.Reader,
	}
	for _, opt := range opts {
		opt(&i)
	}
	return &i
}

// GenerateID implements [domain.IDGenerator].
func (i *IDGenerator) GenerateID(l int) (string, error) {
	buf := make([]byte, max(8, l*2))
	_, err := i.reader.Read(buf)
	if err != nil {
		return "", err
	}

	dst := base64.StdEncoding.EncodeToString(buf)

	res := make([]byte, l)
	w := 0
	for _, b := range []byte(dst) {
		switch b {
		case '+', '/':
		default:
			res[w] = b
			w++
		}
		if w == l {
			break
		}
	}

	return string(res), nil
}

// UUIDGenerator implements [domain.IDGenerator] with random UUIDs. The
// length argument is ignored, a UUID string is always 36 characters.
type UUIDGenerator struct{}

// NewUUIDGenerator returns a UUID-backed implementation of
// domain.IDGenerator.
func NewUUIDGenerator() domain.IDGenerator {
	return &UUIDGenerator{}
}

// GenerateID implements [domain.IDGenerator].
func (u *UUIDGenerator) GenerateID(int) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
