package snowflake

import (
	"sync"
	"testing"
	"time"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorType   error
	}{
		{
			name: "valid default configuration",
			config: Config{
				DatacenterID: 1,
				WorkerID:     1,
			},
			expectError: false,
		},
		{
			name: "valid custom configuration",
			config: Config{
				DatacenterID:   1,
				WorkerID:       5,
				WorkerIDBits:   10,
				SequenceBits:   12,
				DatacenterBits: 0,
			},
			expectError: false,
		},
		{
			name: "invalid worker ID - too large",
			config: Config{
				DatacenterID: 1,
				WorkerID:     1024, // Max is 1023 for 10 bits
				WorkerIDBits: 10,
				SequenceBits: 12,
			},
			expectError: true,
			errorType:   ErrInvalidWorkerID,
		},
		{
			name: "invalid worker ID - negative",
			config: Config{
				DatacenterID: 1,
				WorkerID:     -1,
				WorkerIDBits: 10,
				SequenceBits: 12,
			},
			expectError: true,
			errorType:   ErrInvalidWorkerID,
		},
		{
			name: "invalid bit allocation",
			config: Config{
				WorkerID:       1,
				WorkerIDBits:   12,
				SequenceBits:   12,
				DatacenterBits: 4,
			},
			expectError: true,
			errorType:   ErrInvalidBitAllocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error %v, got nil", tt.errorType)
				}
				if tt.errorType != nil && err != tt.errorType {
					t.Fatalf("expected error %v, got %v", tt.errorType, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g == nil {
				t.Fatal("expected generator, got nil")
			}
		})
	}
}

func TestNextID_Unique(t *testing.T) {
	g, err := NewGenerator(Config{WorkerID: 1})
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	seen := make(map[int64]bool)
	for i := 0; i < 10000; i++ {
		id, err := g.NextID()
		if err != nil {
			t.Fatalf("NextID failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %d", id)
		}
		seen[id] = true
	}
}

func TestNextID_Monotonic(t *testing.T) {
	g, err := NewGenerator(Config{WorkerID: 1})
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	var prev int64
	for i := 0; i < 1000; i++ {
		id, err := g.NextID()
		if err != nil {
			t.Fatalf("NextID failed: %v", err)
		}
		if id <= prev {
			t.Fatalf("IDs not strictly increasing: %d after %d", id, prev)
		}
		prev = id
	}
}

func TestNextID_Concurrent(t *testing.T) {
	g, err := NewGenerator(Config{WorkerID: 1})
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	const goroutines = 10
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id, err := g.NextID()
				if err != nil {
					t.Errorf("NextID failed: %v", err)
					return
				}
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate ID generated: %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Fatalf("expected %d unique IDs, got %d", goroutines*perGoroutine, len(seen))
	}
}

func TestParse(t *testing.T) {
	g, err := NewGenerator(Config{WorkerID: 42})
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	before := time.Now().UnixMilli()
	id, err := g.NextID()
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	after := time.Now().UnixMilli()

	ts, _, workerID, _ := g.Parse(id)
	if workerID != 42 {
		t.Fatalf("expected worker ID 42, got %d", workerID)
	}
	if ts < before || ts > after {
		t.Fatalf("timestamp %d outside expected range [%d, %d]", ts, before, after)
	}
	if g.GetTimestamp(id) != ts {
		t.Fatalf("GetTimestamp mismatch: %d vs %d", g.GetTimestamp(id), ts)
	}
}
