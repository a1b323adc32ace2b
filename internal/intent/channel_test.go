package intent

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

type recorder struct {
	name string
	log  *[]string
}

func (r recorder) Handle(in Intent) {
	*r.log = append(*r.log, fmt.Sprintf("%s:%v", r.name, in))
}

func TestChannel_DeliversInRegistrationOrderBeforeReturning(t *testing.T) {
	var log []string
	c := NewChannel()
	c.Register(recorder{"a", &log})
	c.Register(recorder{"b", &log})

	c.Submit(Query{Resource: ResourceAutopilot})
	want := []string{"a:{autopilot}", "b:{autopilot}"}
	if !reflect.DeepEqual(log, want) {
		t.Fatalf("log = %v, want %v", log, want)
	}

	c.Submit(Query{Resource: ResourceDashboard})
	want = append(want, "a:{dashboard}", "b:{dashboard}")
	if !reflect.DeepEqual(log, want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
}

func TestChannel_ReentrantSubmitRunsAfterCurrentDelivery(t *testing.T) {
	var log []string
	c := NewChannel()
	c.Register(HandlerFunc(func(in Intent) {
		log = append(log, fmt.Sprintf("first:%v", in))
		if q, ok := in.(Query); ok && q.Resource == ResourceAutopilot {
			c.Submit(Query{Resource: ResourceDashboard})
			log = append(log, "first:submitted")
		}
	}))
	c.Register(recorder{"second", &log})

	c.Submit(Query{Resource: ResourceAutopilot})

	want := []string{
		"first:{autopilot}",
		"first:submitted",
		"second:{autopilot}",
		"first:{dashboard}",
		"second:{dashboard}",
	}
	if !reflect.DeepEqual(log, want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	if c.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", c.Pending())
	}
}

func TestChannel_DeepReentrancyDoesNotGrowStack(t *testing.T) {
	c := NewChannel()
	count := 0
	c.Register(HandlerFunc(func(in Intent) {
		count++
		if count < 100000 {
			c.Submit(in)
		}
	}))
	c.Submit(Query{Resource: ResourceAutopilot})
	if count != 100000 {
		t.Fatalf("count = %d, want 100000", count)
	}
}

func TestChannel_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	var log []string
	c := NewChannel()
	c.Register(HandlerFunc(func(Intent) { panic("boom") }))
	c.Register(recorder{"ok", &log})

	c.Submit(Query{Resource: ResourceAutopilot})
	c.Submit(Query{Resource: ResourceDashboard})
	if len(log) != 2 {
		t.Fatalf("log = %v, want two deliveries", log)
	}
}

func TestChannel_ConcurrentSubmittersAreSerialized(t *testing.T) {
	c := NewChannel()
	var (
		inside int
		maxIn  int
		total  int
		mu     sync.Mutex
	)
	c.Register(HandlerFunc(func(Intent) {
		mu.Lock()
		inside++
		if inside > maxIn {
			maxIn = inside
		}
		total++
		mu.Unlock()

		mu.Lock()
		inside--
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c.Submit(Query{Resource: ResourceAutopilot})
			}
		}()
	}
	wg.Wait()

	// Every Submit has returned, so the last deliverer drained the queue.
	c.Submit(Query{Resource: ResourceDashboard})

	mu.Lock()
	defer mu.Unlock()
	if maxIn != 1 {
		t.Fatalf("max concurrent handlers = %d, want 1", maxIn)
	}
	if total != 8*500+1 {
		t.Fatalf("total = %d, want %d", total, 8*500+1)
	}
}

func TestChannel_SubmitDuringDeliveryIsDeliveredByActiveDeliverer(t *testing.T) {
	c := NewChannel()
	var (
		mu  sync.Mutex
		got []Intent
	)
	entered := make(chan struct{})
	release := make(chan struct{})
	c.Register(HandlerFunc(func(in Intent) {
		mu.Lock()
		got = append(got, in)
		mu.Unlock()
		if in == (Query{Resource: ResourceAutopilot}) {
			close(entered)
			<-release
		}
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Submit(Query{Resource: ResourceAutopilot})
	}()
	<-entered

	// Returns at once: the other goroutine owns delivery.
	c.Submit(Query{Resource: ResourceDashboard})
	mu.Lock()
	if len(got) != 1 {
		t.Errorf("delivered before the deliverer resumed: %v", got)
	}
	mu.Unlock()

	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	want := []Intent{Query{Resource: ResourceAutopilot}, Query{Resource: ResourceDashboard}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("delivered %v, want %v", got, want)
	}
}

func TestChannel_ObserveSeesEveryIntent(t *testing.T) {
	c := NewChannel()
	var kinds []Kind
	c.Observe(func(in Intent) { kinds = append(kinds, in.Kind()) })
	c.Submit(BoundsChanged{})
	c.Submit(PartitionFetched{})
	c.Submit(nil)
	if !reflect.DeepEqual(kinds, []Kind{KindBoundsChanged, KindPartitionUpdate}) {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindStatusQuery:     "status-query",
		KindStatusUpdate:    "status-update",
		KindUserCommand:     "user-command",
		KindBoundsChanged:   "bounds-changed",
		KindPartitionUpdate: "partition-update",
		Kind(42):            "kind(42)",
	}
	for k, want := range tests {
		if k.String() != want {
			t.Fatalf("%d.String() = %q, want %q", int(k), k.String(), want)
		}
	}
}
