package verify

import (
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
)

func TestFormatConsoleArgs(t *testing.T) {
	args := []*runtime.RemoteObject{
		{Type: runtime.TypeString, Value: []byte(`"settings saved"`)},
		{Type: runtime.TypeNumber, Value: []byte(`42`)},
		nil,
		{Type: runtime.TypeNumber, UnserializableValue: runtime.UnserializableValue("NaN")},
		{Type: runtime.TypeObject, Description: "Object"},
		{Type: runtime.TypeUndefined},
	}
	assert.Equal(t, "settings saved 42 NaN Object undefined", formatConsoleArgs(args))
}

func TestExceptionText(t *testing.T) {
	assert.Equal(t, "", exceptionText(nil))
	assert.Equal(t, "Uncaught", exceptionText(&runtime.ExceptionDetails{Text: "Uncaught"}))
	assert.Equal(t, "TypeError: x is undefined", exceptionText(&runtime.ExceptionDetails{
		Text:      "Uncaught",
		Exception: &runtime.RemoteObject{Description: "TypeError: x is undefined"},
	}))
}
