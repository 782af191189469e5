package notify

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_KeepsOrder(t *testing.T) {
	r := NewRecorder(10)
	r.Error("first")
	r.Error("second")

	assert.Equal(t, []string{"first", "second"}, r.Texts())
	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "error", msgs[0].Level)
	assert.False(t, msgs[0].CreatedAt.IsZero())
}

func TestRecorder_DropsOldestOverLimit(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Error(fmt.Sprintf("msg-%d", i))
	}

	assert.Equal(t, []string{"msg-2", "msg-3", "msg-4"}, r.Texts())
}

func TestRecorder_Drain(t *testing.T) {
	r := NewRecorder(0)
	r.Error("out of stock")

	drained := r.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, "out of stock", drained[0].Text)
	assert.Empty(t, r.Drain())
	assert.NotNil(t, r.Drain())
}

func TestLogNotifier_WritesWarning(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	NewLogNotifier(log).Error("failed to add product")

	assert.Contains(t, buf.String(), `"msg":"failed to add product"`)
	assert.Contains(t, buf.String(), `"level":"warning"`)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewRecorder(5), NewRecorder(5)
	Multi{a, b}.Error("failed to remove product")

	assert.Equal(t, []string{"failed to remove product"}, a.Texts())
	assert.Equal(t, []string{"failed to remove product"}, b.Texts())
}
