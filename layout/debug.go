package layout

import (
	"encoding/json"
	"io"
	"os"
)

// WriteDebugJSON 将打包结果输出为 JSON，便于调试或对照各格式的输出。
func WriteDebugJSON(plan *Plan, path string) error {
	if plan == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(f, plan); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeDebugJSON 以缩进格式写出 plan。
func EncodeDebugJSON(w io.Writer, plan *Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}
