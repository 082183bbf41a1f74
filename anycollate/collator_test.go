package anycollate

import (
	"reflect"
	"strings"
	"testing"

	"github.com/unixpickle/anysent/anyload"
	"github.com/unixpickle/anysent/anymm"
	"github.com/unixpickle/anyvec/anyvec64"
)

func testDataset() *anymm.Dataset {
	return anymm.NewMOSI([]anymm.Example{
		{
			anymm.Text:  []int{5, 6, 7},
			anymm.Audio: [][]float64{{1, 2}, {3, 4}},
			anymm.Label: [][]float64{{-0.5}},
		},
		{
			anymm.Text:  []int{8},
			anymm.Audio: [][]float64{{5, 6}, {7, 8}, {9, 10}},
			anymm.Label: [][]float64{{2}},
		},
	}, false, anymm.Text, anymm.Audio)
}

func TestCollatePadBack(t *testing.T) {
	c := &Collator{Creator: anyvec64.CurrentCreator()}
	b, err := c.Fetch(testDataset())
	if err != nil {
		t.Fatal(err)
	}
	batch := b.(*Batch)
	if batch.Num != 2 {
		t.Errorf("unexpected batch size %d", batch.Num)
	}

	text := batch.Tokens[anymm.Text]
	if !reflect.DeepEqual(text.IDs, [][]int{{5, 6, 7}, {8, 0, 0}}) {
		t.Errorf("unexpected IDs: %v", text.IDs)
	}
	if !reflect.DeepEqual(text.Lengths, []int{3, 1}) || text.MaxLen != 3 {
		t.Errorf("unexpected lengths: %v", text.Lengths)
	}

	audio := batch.Features[anymm.Audio]
	expected := []float64{1, 2, 3, 4, 0, 0, 5, 6, 7, 8, 9, 10}
	if !reflect.DeepEqual(audio.Packed.Data(), expected) {
		t.Errorf("unexpected packed audio: %v", audio.Packed.Data())
	}
	if audio.Dim != 2 || audio.MaxLen != 3 {
		t.Errorf("unexpected shape: dim=%d maxLen=%d", audio.Dim, audio.MaxLen)
	}
	if !reflect.DeepEqual(audio.Mask().Data(), []float64{1, 1, 0, 1, 1, 1}) {
		t.Errorf("unexpected mask: %v", audio.Mask().Data())
	}

	if !reflect.DeepEqual(batch.Labels.Data(), []float64{-0.5, 2}) {
		t.Errorf("unexpected labels: %v", batch.Labels.Data())
	}
}

func TestCollatePadFront(t *testing.T) {
	c := &Collator{Creator: anyvec64.CurrentCreator(), PadFront: true, MaxLen: 2, Binary: true}
	b, err := c.Fetch(testDataset())
	if err != nil {
		t.Fatal(err)
	}
	batch := b.(*Batch)

	text := batch.Tokens[anymm.Text]
	if !reflect.DeepEqual(text.IDs, [][]int{{6, 7}, {0, 8}}) {
		t.Errorf("unexpected IDs: %v", text.IDs)
	}

	audio := batch.Features[anymm.Audio]
	expected := []float64{1, 2, 3, 4, 7, 8, 9, 10}
	if !reflect.DeepEqual(audio.Packed.Data(), expected) {
		t.Errorf("unexpected packed audio: %v", audio.Packed.Data())
	}
	if !reflect.DeepEqual(batch.Labels.Data(), []float64{0, 1}) {
		t.Errorf("unexpected labels: %v", batch.Labels.Data())
	}
}

func TestCollateSeq(t *testing.T) {
	c := &Collator{Creator: anyvec64.CurrentCreator(), MaxGos: 1}
	b, err := c.Fetch(testDataset())
	if err != nil {
		t.Fatal(err)
	}
	seq := b.(*Batch).Features[anymm.Audio].Seq()
	out := seq.Output()
	if len(out) != 3 {
		t.Fatalf("expected 3 timesteps but got %d", len(out))
	}
	if !reflect.DeepEqual(out[2].Present, []bool{false, true}) {
		t.Errorf("unexpected present map: %v", out[2].Present)
	}
	if !reflect.DeepEqual(out[0].Packed.Data(), []float64{1, 2, 5, 6}) {
		t.Errorf("unexpected first timestep: %v", out[0].Packed.Data())
	}
}

func TestCollateErrors(t *testing.T) {
	c := &Collator{Creator: anyvec64.CurrentCreator()}
	if _, err := c.Fetch(testDataset().Slice(0, 0)); err == nil {
		t.Error("expected error for empty batch")
	}

	bad := anymm.New([]anymm.Example{
		{anymm.Audio: [][]float64{{1, 2}}},
		{anymm.Audio: [][]float64{{1, 2, 3}}},
	}, anymm.Audio)
	if _, err := c.Fetch(bad); err == nil {
		t.Error("expected error for inconsistent feature sizes")
	}

	bad = anymm.New([]anymm.Example{{anymm.Visual: "not a sequence"}}, anymm.Visual)
	if _, err := c.Fetch(bad); err == nil {
		t.Error("expected error for unsupported payload")
	}
}

func TestCollateNoLabels(t *testing.T) {
	c := &Collator{Creator: anyvec64.CurrentCreator(), Modalities: []string{anymm.Text}}
	d := anymm.New([]anymm.Example{{anymm.Text: []int{1}}}, anymm.Text)
	b, err := c.Fetch(d)
	if err != nil {
		t.Fatal(err)
	}
	if b.(*Batch).Labels != nil {
		t.Error("expected no labels")
	}
	if _, ok := b.(*Batch).Features[anymm.Audio]; ok {
		t.Error("unexpected audio batch")
	}
}

func TestCollateSortSampleList(t *testing.T) {
	var data []anymm.Example
	for i := 0; i < 5; i++ {
		data = append(data, anymm.Example{
			anymm.Text:  make([]int, i+1),
			anymm.Label: []float64{float64(i)},
		})
	}
	d := anymm.NewMOSI(data, false, anymm.Text)
	loader := &anyload.Loader{
		Samples:   &anyload.SortSampleList{SortableSampleList: d, BatchSize: 2},
		Fetcher:   &Collator{Creator: anyvec64.CurrentCreator()},
		BatchSize: 2,
		Shuffle:   true,
	}
	var total int
	err := loader.Epoch(func(b anyload.Batch) error {
		batch := b.(*Batch)
		if _, ok := batch.Tokens[anymm.Text]; !ok {
			t.Error("missing text batch")
		}
		total += batch.Num
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("expected 5 examples but got %d", total)
	}
}

func TestCollateNegativeMaxGos(t *testing.T) {
	c := &Collator{Creator: anyvec64.CurrentCreator(), MaxGos: -1}
	b, err := c.Fetch(testDataset())
	if err != nil {
		t.Fatal(err)
	}
	text := b.(*Batch).Tokens[anymm.Text]
	if text == nil || !reflect.DeepEqual(text.Lengths, []int{3, 1}) {
		t.Errorf("unexpected text batch: %v", text)
	}
}

func TestCollateEmptyLabel(t *testing.T) {
	d := anymm.NewMOSI([]anymm.Example{
		{anymm.Text: []int{1}, anymm.Label: []float64{1}},
		{anymm.Text: []int{2}, anymm.Label: []float64{}},
	}, false, anymm.Text)
	c := &Collator{Creator: anyvec64.CurrentCreator()}
	_, err := c.Fetch(d)
	if err == nil || !strings.Contains(err.Error(), "empty label") {
		t.Errorf("expected empty label error but got %v", err)
	}
}
