package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Type   string `json:"bullyingType" validate:"required,bullying_type"`
	Text   string `json:"text" validate:"notblank"`
	Status string `json:"status" validate:"omitempty,report_status"`
	Sender string `json:"sender" validate:"omitempty,message_sender"`
}

func TestCustomTags(t *testing.T) {
	v := New()
	require.NoError(t, v.Struct(sample{Type: "Social Exclusion", Text: "x", Status: "resolved", Sender: "admin"}))

	err := v.Struct(sample{Type: "Teasing", Text: "   ", Status: "closed", Sender: "teacher"})
	require.Error(t, err)
	msg := Describe(err)
	assert.Contains(t, msg, "bullyingType: bullying_type")
	assert.Contains(t, msg, "text: notblank")
	assert.Contains(t, msg, "status: report_status")
	assert.Contains(t, msg, "sender: message_sender")
}
