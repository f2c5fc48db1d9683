package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newStrategies builds one of each strategy kind, each rooted in its own
// temp directory, so the shared contract can run against both.
func newStrategies(t *testing.T) map[string]Strategy {
	t.Helper()

	pathDir := t.TempDir()
	pathStrat, err := NewPathStrategy(pathDir)
	if err != nil {
		t.Fatal(err)
	}

	brokerDir := t.TempDir()
	broker, err := NewIndexBroker(brokerDir)
	if err != nil {
		t.Fatal(err)
	}
	brokerStrat, err := NewBrokerStrategy(broker, brokerDir)
	if err != nil {
		t.Fatal(err)
	}

	return map[string]Strategy{
		"path":   pathStrat,
		"broker": brokerStrat,
	}
}

func TestReserve_UniqueNameSucceeds(t *testing.T) {
	for kind, s := range newStrategies(t) {
		t.Run(kind, func(t *testing.T) {
			res, err := s.Reserve("report.pdf", "application/pdf")
			if err != nil {
				t.Fatalf("Reserve failed: %v", err)
			}
			if res.Name != "report.pdf" {
				t.Errorf("reserved name = %q, want report.pdf", res.Name)
			}
			if _, err := res.Write([]byte("hello")); err != nil {
				t.Errorf("Write failed: %v", err)
			}
			if err := res.Close(); err != nil {
				t.Errorf("Close failed: %v", err)
			}

			data, err := os.ReadFile(res.Path)
			if err != nil {
				t.Fatalf("read back failed: %v", err)
			}
			if string(data) != "hello" {
				t.Errorf("content = %q, want hello", data)
			}
		})
	}
}

func TestReserve_ConflictReturnsErrNameTaken(t *testing.T) {
	for kind, s := range newStrategies(t) {
		t.Run(kind, func(t *testing.T) {
			first, err := s.Reserve("dup.txt", "text/plain")
			if err != nil {
				t.Fatalf("first Reserve failed: %v", err)
			}
			defer first.Close()

			_, err = s.Reserve("dup.txt", "text/plain")
			if !errors.Is(err, ErrNameTaken) {
				t.Errorf("second Reserve error = %v, want ErrNameTaken", err)
			}
		})
	}
}

func TestDiscard_FreesNameAndRemovesFile(t *testing.T) {
	for kind, s := range newStrategies(t) {
		t.Run(kind, func(t *testing.T) {
			res, err := s.Reserve("temp.bin", "application/octet-stream")
			if err != nil {
				t.Fatal(err)
			}
			if err := res.Discard(); err != nil {
				t.Fatalf("Discard failed: %v", err)
			}
			if _, err := os.Stat(res.Path); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("file still exists after Discard")
			}

			// The name must be reservable again.
			res2, err := s.Reserve("temp.bin", "application/octet-stream")
			if err != nil {
				t.Errorf("Reserve after Discard failed: %v", err)
			} else {
				res2.Close()
			}
		})
	}
}

func TestPathStrategy_ConflictWithPreexistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewPathStrategy(dir)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Reserve("existing.txt", "text/plain")
	if !errors.Is(err, ErrNameTaken) {
		t.Errorf("expected ErrNameTaken for pre-existing file, got %v", err)
	}
}

func TestIndexBroker_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	b, err := NewIndexBroker(dir)
	if err != nil {
		t.Fatal(err)
	}
	entry, err := b.Insert("movie.mp4", "video/mp4")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil {
		t.Fatal("Insert returned nil entry without conflict")
	}

	reopened, err := NewIndexBroker(dir)
	if err != nil {
		t.Fatal(err)
	}
	dup, err := reopened.Insert("movie.mp4", "video/mp4")
	if err != nil {
		t.Fatal(err)
	}
	if dup != nil {
		t.Error("reopened broker forgot the existing name")
	}
}

func TestIndexBroker_RemoveFreesName(t *testing.T) {
	b, err := NewIndexBroker(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	entry, _ := b.Insert("a.txt", "text/plain")
	if entry == nil {
		t.Fatal("unexpected conflict")
	}
	if err := b.Remove(entry.ID); err != nil {
		t.Fatal(err)
	}
	again, _ := b.Insert("a.txt", "text/plain")
	if again == nil {
		t.Error("name not freed after Remove")
	}
}

func TestDetect(t *testing.T) {
	// Plain directory: path strategy.
	plain := t.TempDir()
	s, err := Detect(plain)
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind() != "path" {
		t.Errorf("Detect on plain dir = %q, want path", s.Kind())
	}

	// Directory carrying a broker index: broker strategy.
	brokered := t.TempDir()
	if err := os.WriteFile(filepath.Join(brokered, indexFileName), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = Detect(brokered)
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind() != "broker" {
		t.Errorf("Detect on brokered dir = %q, want broker", s.Kind())
	}
}
