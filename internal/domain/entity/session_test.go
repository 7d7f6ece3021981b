package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSessionAppend(t *testing.T) {
	session := NewChatSession()
	session.Append(ChatMessage{Role: RoleUser, Content: "hi"})

	require.Len(t, session.Messages, 1)
	assert.False(t, session.Messages[0].Timestamp.IsZero(), "missing timestamp is filled in")
	assert.Equal(t, session.Messages[0].Timestamp, session.UpdatedAt)
}

func TestChatSessionTrimToKeepsNewest(t *testing.T) {
	session := NewChatSession()
	for i := 0; i < 10; i++ {
		session.Append(ChatMessage{Role: RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}

	session.TrimTo(4)

	require.Len(t, session.Messages, 4)
	assert.Equal(t, "msg-6", session.Messages[0].Content)
	assert.Equal(t, "msg-9", session.Messages[3].Content)
}

func TestChatSessionTrimToNoOp(t *testing.T) {
	session := NewChatSession()
	session.Append(ChatMessage{Role: RoleUser, Content: "only"})

	session.TrimTo(0)
	assert.Len(t, session.Messages, 1, "non-positive cap leaves history untouched")

	session.TrimTo(5)
	assert.Len(t, session.Messages, 1, "cap above current size leaves history untouched")
}
