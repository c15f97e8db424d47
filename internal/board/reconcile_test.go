package board

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tasukuchiba/message_board/internal/models"
)

var shared = SharedLayout{AppID: "test-app"}

func msg(id, author string, seconds int64) models.Message {
	return models.Message{ID: id, Text: "text " + id, AuthorID: author, CreatedAt: &models.Timestamp{Seconds: seconds}}
}

func TestReconcile_OrdersNewestFirstWithOwnership(t *testing.T) {
	req := require.New(t)

	view := Reconcile("U1", shared, []models.Message{msg("m1", "U1", 1000), msg("m2", "U2", 2000)})

	req.Equal(ViewReady, view.State)
	req.Equal([]string{"m2", "m1"}, ids(view))
	req.False(view.Entries[0].CanMutate)
	req.True(view.Entries[1].CanMutate)
}

func TestReconcile_MissingTimestampSortsOldest(t *testing.T) {
	req := require.New(t)
	pending := models.Message{ID: "pending", Text: "just sent", AuthorID: "U1"}

	view := Reconcile("U1", shared, []models.Message{pending, msg("m1", "U1", 5)})

	req.Equal([]string{"m1", "pending"}, ids(view))
}

func TestReconcile_TiesAreDeterministic(t *testing.T) {
	req := require.New(t)
	a := msg("a", "U1", 10)
	b := msg("b", "U1", 10)
	c := msg("c", "U1", 10)
	c.CreatedAt.Nanos = 500

	first := Reconcile("U1", shared, []models.Message{b, a, c})
	second := Reconcile("U1", shared, []models.Message{c, a, b})

	req.Equal([]string{"c", "a", "b"}, ids(first))
	req.Equal(ids(first), ids(second))
}

func TestReconcile_Idempotent(t *testing.T) {
	req := require.New(t)
	docs := []models.Message{msg("m1", "U1", 1000), msg("m2", "U2", 2000), {ID: "m3", Text: "new", AuthorID: "U1"}}

	first := Reconcile("U1", shared, docs)
	second := Reconcile("U1", shared, docs)

	req.Equal(first, second)
	req.True(first.Equal(second))
}

func TestReconcile_EmptySnapshot(t *testing.T) {
	req := require.New(t)

	view := Reconcile("U1", shared, nil)

	req.Equal(ViewEmpty, view.State)
	req.NotEqual(ViewLoading, view.State)
	req.Empty(view.Entries)
}

func TestReconcile_PerUserLayoutOwnsEverything(t *testing.T) {
	req := require.New(t)
	perUser := PerUserLayout{AppID: "test-app"}
	docs := []models.Message{{ID: "m1", Text: "mine", CreatedAt: &models.Timestamp{Seconds: 1}}}

	req.True(Reconcile("U1", perUser, docs).Entries[0].CanMutate)
	// 未認証のIDは変更権限を与えない
	req.False(Reconcile("", perUser, docs).Entries[0].CanMutate)
	req.False(Reconcile("", shared, []models.Message{{ID: "m1", Text: "x"}}).Entries[0].CanMutate)
}

func TestReconcile_OrderingHoldsForRandomSnapshots(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		docs := make([]models.Message, rng.Intn(20))
		for i := range docs {
			docs[i] = models.Message{ID: fmt.Sprintf("m%d", i), Text: "x", AuthorID: fmt.Sprintf("U%d", rng.Intn(3))}
			if rng.Intn(4) != 0 {
				docs[i].CreatedAt = &models.Timestamp{Seconds: rng.Int63n(10), Nanos: rng.Int31n(3)}
			}
		}

		view := Reconcile("U1", shared, docs)
		for i := 1; i < len(view.Entries); i++ {
			require.GreaterOrEqual(t, view.Entries[i-1].Message.Seconds(), view.Entries[i].Message.Seconds())
		}
		for _, e := range view.Entries {
			require.Equal(t, e.Message.AuthorID == "U1", e.CanMutate)
		}
	}
}

func TestEngine_RendersOnlyWhenViewChanges(t *testing.T) {
	req := require.New(t)
	renderer := newRecordingRenderer()
	engine := NewEngine(shared, renderer, testLogger())
	snap := Snapshot{Docs: []models.Message{msg("m1", "U1", 1000)}}

	req.True(engine.Reset())
	req.True(engine.Apply("U1", 1, snap))
	// 同じスナップショットは再描画しない
	req.False(engine.Apply("U1", 1, snap))
	req.Len(renderer.views, 2)

	edited := Snapshot{Docs: []models.Message{msg("m1", "U1", 1000)}}
	edited.Docs[0].Text = "edited"
	req.True(engine.Apply("U1", 1, edited))
	req.Equal("edited", engine.View().Entries[0].Message.Text)
}

func TestEngine_FeedErrorBlocksUntilNewerSubscription(t *testing.T) {
	req := require.New(t)
	renderer := newRecordingRenderer()
	engine := NewEngine(shared, renderer, testLogger())
	snap := Snapshot{Docs: []models.Message{msg("m1", "U1", 1000)}}

	req.True(engine.Apply("U1", 1, snap))
	req.True(engine.Fail(1, fmt.Errorf("%w: permission denied", ErrFeedSubscriptionFailed)))
	req.Equal(ViewFeedError, engine.View().State)
	req.Contains(engine.View().Problem, "permission denied")

	// 失敗した購読からのスナップショットは反映しない
	req.False(engine.Apply("U1", 1, snap))
	req.Equal(ViewFeedError, engine.View().State)

	// 新しい購読からのスナップショットで復帰する
	req.True(engine.Apply("U1", 2, snap))
	req.Equal(ViewReady, engine.View().State)
}

func TestEngine_Lookup(t *testing.T) {
	req := require.New(t)
	engine := NewEngine(shared, newRecordingRenderer(), testLogger())
	engine.Apply("U1", 1, Snapshot{Docs: []models.Message{msg("m1", "U1", 1000)}})

	entry, ok := engine.Lookup("m1")
	req.True(ok)
	req.True(entry.CanMutate)

	_, ok = engine.Lookup("missing")
	req.False(ok)
}
