package screenshare

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/voxroom/voxroom/internal/models"
)

type fakeRegistry struct {
	byConn map[string]models.Participant
}

func newFakeRegistry(participants ...models.Participant) *fakeRegistry {
	r := &fakeRegistry{byConn: make(map[string]models.Participant)}
	for _, p := range participants {
		r.byConn[p.ConnectionID] = p
	}
	return r
}

func (r *fakeRegistry) LookupByConnection(connectionID string) (models.Participant, bool) {
	p, ok := r.byConn[connectionID]
	return p, ok
}

func (r *fakeRegistry) Lookup(participantID string) (models.Participant, bool) {
	for _, p := range r.byConn {
		if p.ID == participantID {
			return p, true
		}
	}
	return models.Participant{}, false
}

type fakeAudit struct {
	mu      sync.Mutex
	records int
	fail    error
}

func (a *fakeAudit) RecordScreenShare(context.Context, string, string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	a.records++
	return nil
}

var (
	alice = models.Participant{ID: "p-alice", ConnectionID: "conn-alice"}
	bob   = models.Participant{ID: "p-bob", ConnectionID: "conn-bob"}
)

func newTestManager() (*Manager, *fakeAudit) {
	audit := &fakeAudit{}
	return NewManager("test-room", newFakeRegistry(alice, bob), audit), audit
}

func TestRequest_GrantsIdleLock(t *testing.T) {
	m, audit := newTestManager()

	ev, err := m.Request(context.Background(), "conn-alice")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if ev.Name != models.EventScreenShareStarted || ev.ParticipantID != "p-alice" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !m.IsActive() || m.CurrentOwner() != "p-alice" {
		t.Fatalf("lock not held by alice")
	}
	if audit.records != 1 {
		t.Fatalf("audit records = %d, want 1", audit.records)
	}
}

func TestRequest_MutualExclusion(t *testing.T) {
	m, _ := newTestManager()

	if _, err := m.Request(context.Background(), "conn-alice"); err != nil {
		t.Fatalf("alice's request failed: %v", err)
	}
	if _, err := m.Request(context.Background(), "conn-bob"); !errors.Is(err, ErrInUse) {
		t.Fatalf("err = %v, want ErrInUse", err)
	}
	if m.CurrentOwner() != "p-alice" {
		t.Fatalf("denied request must not change the owner")
	}
}

func TestRequest_SameOwnerIdempotent(t *testing.T) {
	m, audit := newTestManager()

	if _, err := m.Request(context.Background(), "conn-alice"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		ev, err := m.Request(context.Background(), "conn-alice")
		if err != nil {
			t.Fatalf("re-request %d failed: %v", i, err)
		}
		if ev.ParticipantID != "p-alice" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	}
	if m.CurrentOwner() != "p-alice" {
		t.Fatalf("owner changed on re-request")
	}
	if audit.records != 1 {
		t.Fatalf("re-request must not write new audit rows: %d", audit.records)
	}
}

func TestRequest_UnauthorizedParticipant(t *testing.T) {
	m, _ := newTestManager()

	if _, err := m.Request(context.Background(), "conn-stranger"); !errors.Is(err, ErrUnauthorizedParticipant) {
		t.Fatalf("err = %v, want ErrUnauthorizedParticipant", err)
	}
}

func TestRequest_AuditFailureRefusesGrant(t *testing.T) {
	m, audit := newTestManager()
	auditErr := errors.New("audit store down")
	audit.fail = auditErr

	_, err := m.Request(context.Background(), "conn-alice")
	if !errors.Is(err, auditErr) {
		t.Fatalf("err = %v, want the audit error", err)
	}
	if m.IsActive() {
		t.Fatalf("failed grant must leave the lock idle")
	}

	// And the lock is still grantable once the store recovers.
	audit.fail = nil
	if _, err := m.Request(context.Background(), "conn-bob"); err != nil {
		t.Fatalf("request after recovery failed: %v", err)
	}
	if m.CurrentOwner() != "p-bob" {
		t.Fatalf("owner = %q, want p-bob", m.CurrentOwner())
	}
}

func TestStop_Lifecycle(t *testing.T) {
	m, _ := newTestManager()

	// Stop with nothing held.
	if _, err := m.Stop("conn-alice"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("err = %v, want ErrNotActive", err)
	}

	if _, err := m.Request(context.Background(), "conn-alice"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Only the owner may release.
	if _, err := m.Stop("conn-bob"); !errors.Is(err, ErrUnauthorizedStop) {
		t.Fatalf("err = %v, want ErrUnauthorizedStop", err)
	}
	if _, err := m.Stop("conn-stranger"); !errors.Is(err, ErrUnauthorizedParticipant) {
		t.Fatalf("err = %v, want ErrUnauthorizedParticipant", err)
	}

	ev, err := m.Stop("conn-alice")
	if err != nil {
		t.Fatalf("owner's stop failed: %v", err)
	}
	if ev.Name != models.EventScreenShareStopped || ev.ParticipantID != "p-alice" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if m.IsActive() {
		t.Fatalf("lock still held after stop")
	}
}

func TestRequestStopRequest_Scenario(t *testing.T) {
	// A requests (granted); B requests (denied); A stops; B requests (granted).
	m, _ := newTestManager()

	if _, err := m.Request(context.Background(), "conn-alice"); err != nil {
		t.Fatalf("A's request failed: %v", err)
	}
	if _, err := m.Request(context.Background(), "conn-bob"); !errors.Is(err, ErrInUse) {
		t.Fatalf("B's request: err = %v, want ErrInUse", err)
	}
	if _, err := m.Stop("conn-alice"); err != nil {
		t.Fatalf("A's stop failed: %v", err)
	}
	if _, err := m.Request(context.Background(), "conn-bob"); err != nil {
		t.Fatalf("B's second request failed: %v", err)
	}
	if m.CurrentOwner() != "p-bob" {
		t.Fatalf("owner = %q, want p-bob", m.CurrentOwner())
	}
}

func TestOnParticipantDisconnected_ForcesRelease(t *testing.T) {
	m, _ := newTestManager()

	if _, err := m.Request(context.Background(), "conn-alice"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	ev, released := m.OnParticipantDisconnected("p-alice")
	if !released {
		t.Fatalf("expected forced release")
	}
	if ev.Name != models.EventScreenShareStopped || ev.ParticipantID != "p-alice" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if m.IsActive() {
		t.Fatalf("lock still held after disconnect")
	}

	// Second disconnect for the same participant produces no second event.
	if _, released := m.OnParticipantDisconnected("p-alice"); released {
		t.Fatalf("release must happen exactly once")
	}
}

func TestOnParticipantDisconnected_NonOwnerIsNoop(t *testing.T) {
	m, _ := newTestManager()

	if _, err := m.Request(context.Background(), "conn-alice"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, released := m.OnParticipantDisconnected("p-bob"); released {
		t.Fatalf("non-owner disconnect must not release the lock")
	}
	if m.CurrentOwner() != "p-alice" {
		t.Fatalf("owner changed on non-owner disconnect")
	}
}

func TestRequest_ConcurrentSingleWinner(t *testing.T) {
	m, _ := newTestManager()

	var wg sync.WaitGroup
	grants := make(chan string, 2)
	for _, conn := range []string{"conn-alice", "conn-bob"} {
		wg.Add(1)
		go func(conn string) {
			defer wg.Done()
			if _, err := m.Request(context.Background(), conn); err == nil {
				grants <- conn
			}
		}(conn)
	}
	wg.Wait()
	close(grants)

	winners := 0
	for range grants {
		winners++
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}
