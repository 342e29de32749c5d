package formatter

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/ccmeter/ccmeter/internal/metrics"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(snap *metrics.Snapshot) error {
	out, err := sonic.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
