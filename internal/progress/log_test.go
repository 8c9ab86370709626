package progress

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/medusecase/internal/model"
)

func TestLog_Lines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	rec := model.Record{Index: 7, Name: "Azithral 500 Tablet"}
	l.BatchStarted(2, 10, 50, 100, 3)
	l.RowProcessed(rec, "bacterial infections", "model")
	l.RateLimited(rec, 90*time.Second, errors.New("429"))
	l.Saved("out.csv", 20)

	out := buf.String()
	for _, want := range []string{
		`msg="batch started" batch=2 of=10 rows=50-99 pending=3`,
		`msg="row processed" row=7 name="Azithral 500 Tablet" usecase="bacterial infections" source=model`,
		`level=WARN msg="rate limited" row=7`,
		`cooldown=1m30s`,
		`msg="checkpoint saved" path=out.csv rows=20`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %q, got:\n%s", want, out)
		}
	}
}

func TestOpen_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.log")

	for i := 0; i < 2; i++ {
		l, err := Open(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		l.LookupCompleted(i)
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "lookup pass completed"); n != 2 {
		t.Errorf("expected 2 appended lines, got %d:\n%s", n, data)
	}
}

func TestOpen_EmptyPathDiscards(t *testing.T) {
	l, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.RunCompleted(model.Stats{Total: 1}, time.Second)
	if err := l.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	var nilLog *Log
	if err := nilLog.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
}
