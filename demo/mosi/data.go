package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/unixpickle/anysent/anymm"
	"github.com/unixpickle/essentials"
)

// A record is one line of the input file.
type record struct {
	ID     string      `json:"id"`
	Text   string      `json:"text"`
	Audio  [][]float64 `json:"audio,omitempty"`
	Visual [][]float64 `json:"visual,omitempty"`
	Label  []float64   `json:"label"`
}

func readRecords(path string) ([]*record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("read records", err)
	}
	defer f.Close()

	var res []*record
	var lineNum int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<26)
	for scanner.Scan() {
		lineNum++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, essentials.AddCtx("read records", err)
		}
		if len(r.Label) == 0 {
			return nil, fmt.Errorf("read records: line %d: missing label", lineNum)
		}
		res = append(res, &r)
	}
	if err := scanner.Err(); err != nil {
		return nil, essentials.AddCtx("read records", err)
	}
	return res, nil
}

// examples combines the records with their token IDs.
func examples(records []*record, ids [][]int) []anymm.Example {
	res := make([]anymm.Example, len(records))
	for i, r := range records {
		ex := anymm.Example{
			anymm.ID:    r.ID,
			anymm.Text:  ids[i],
			anymm.Label: r.Label,
		}
		if r.Audio != nil {
			ex[anymm.Audio] = r.Audio
		}
		if r.Visual != nil {
			ex[anymm.Visual] = r.Visual
		}
		res[i] = ex
	}
	return res
}
