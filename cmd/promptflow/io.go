package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BaSui01/promptflow/optimizer"
	"github.com/BaSui01/promptflow/types"
)

// maxLineSize JSONL 单行上限
const maxLineSize = 4 << 20

// readJSONL 逐行解码，跳过空行；decode 收到的行号从 1 开始
func readJSONL(path string, decode func(line int, data []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := decode(line, data); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func readRecords(path string) ([]types.Record, error) {
	var records []types.Record
	err := readJSONL(path, func(_ int, data []byte) error {
		var r types.Record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("input must be a JSON object")
		}
		records = append(records, r)
		return nil
	})
	return records, err
}

// readTrainset 每行一个 {"input": {...}, "output": {...}}，output 缺省表示无标注
func readTrainset(path string) ([]optimizer.Example, error) {
	var examples []optimizer.Example
	err := readJSONL(path, func(_ int, data []byte) error {
		var ex optimizer.Example
		if err := json.Unmarshal(data, &ex); err != nil {
			return err
		}
		if ex.Input == nil {
			return fmt.Errorf("example has no input")
		}
		examples = append(examples, ex)
		return nil
	})
	return examples, err
}
