package update

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type UpdateTestSuite struct {
	suite.Suite
}

// Every action shape survives the wire round trip.
func (s *UpdateTestSuite) TestRoundTrip() {
	actions := []Action{
		Push("tags", "a"),
		PushAt("tags", "b", 0),
		Pushs("tags", "c", "d"),
		Pop("tags"),
		PopTail("tags"),
		Set("name", "ana"),
		Clear("age"),
	}

	loaded, err := LoadAll(DumpAll(actions))
	s.Require().NoError(err)
	s.Require().Len(loaded, len(actions))

	push := loaded[1].(*PushAction)
	s.Equal("tags", push.Key())
	s.Equal("b", push.Value)
	s.Require().NotNil(push.Position)
	s.Equal(0, *push.Position)

	pop := loaded[3].(*PopAction)
	s.True(pop.Head)
	s.False(loaded[4].(*PopAction).Head)
	s.Equal("name", loaded[5].Key())
	s.Equal(TagClear, loaded[6].Tag())
}

// Pop defaults to the head when the wire form omits the flag.
func (s *UpdateTestSuite) TestPopDefaultsToHead() {
	loaded, err := Load(map[string]any{"pop": map[string]any{"key": "tags"}})
	s.Require().NoError(err)
	s.True(loaded.(*PopAction).Head)
}

// Malformed wire forms are rejected.
func (s *UpdateTestSuite) TestMalformed() {
	_, err := Load(map[string]any{"bogus": map[string]any{"key": "x"}})
	s.ErrorAs(err, &ErrMalformed{})

	_, err = Load(map[string]any{})
	s.ErrorAs(err, &ErrMalformed{})

	_, err = Load(map[string]any{"set": "not a map"})
	s.ErrorAs(err, &ErrMalformed{})
}

func TestUpdateTestSuite(t *testing.T) {
	suite.Run(t, new(UpdateTestSuite))
}
