package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/domain/prescriptions"
	"prescription-ledger/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActors(t *testing.T, s *Store, list ...actors.Actor) {
	t.Helper()
	for _, a := range list {
		require.NoError(t, s.Actors().Create(context.Background(), a))
	}
}

var (
	presc1 = actors.Actor{ID: "p1", Email: "p1@x", Role: auth.RolePrescriber}
	presc2 = actors.Actor{ID: "p2", Email: "p2@x", Role: auth.RolePrescriber}
	disp1  = actors.Actor{ID: "d1", Email: "d1@x", Role: auth.RoleDispenser}
	disp2  = actors.Actor{ID: "d2", Email: "d2@x", Role: auth.RoleDispenser}
)

func TestActorRepo_EmailIsUniqueAcrossPools(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Actors()

	require.NoError(t, repo.Create(ctx, actors.Actor{ID: "a", Email: "a@x", Role: auth.RolePrescriber}))

	err := repo.Create(ctx, actors.Actor{ID: "b", Email: "A@X", Role: auth.RoleDispenser})
	require.ErrorIs(t, err, actors.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, " a@X ")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

func TestActorRepo_UpdateMovesEmailIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Actors()

	require.NoError(t, repo.Create(ctx, actors.Actor{ID: "a", Email: "a@x", Role: auth.RolePrescriber}))
	require.NoError(t, repo.Create(ctx, actors.Actor{ID: "c", Email: "c@x", Role: auth.RolePrescriber}))

	require.ErrorIs(t, repo.Update(ctx, actors.Actor{ID: "a", Email: "c@x"}), actors.ErrEmailTaken)
	require.ErrorIs(t, repo.Update(ctx, actors.Actor{ID: "zzz", Email: "z@x"}), actors.ErrNotFound)

	require.NoError(t, repo.Update(ctx, actors.Actor{ID: "a", Email: "new@x", Role: auth.RolePrescriber}))

	_, err := repo.GetByEmail(ctx, "a@x")
	require.ErrorIs(t, err, actors.ErrNotFound)

	// el email liberado vuelve a estar disponible
	require.NoError(t, repo.Create(ctx, actors.Actor{ID: "d", Email: "a@x", Role: auth.RoleDispenser}))
}

func TestActorRepo_ListByRoleAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Actors()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, actors.Actor{ID: "p2", Email: "p2@x", Role: auth.RolePrescriber, CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, actors.Actor{ID: "p1", Email: "p1@x", Role: auth.RolePrescriber, CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, actors.Actor{ID: "d1", Email: "d1@x", Role: auth.RoleDispenser, CreatedAt: t0}))

	items, err := repo.ListByRole(ctx, auth.RolePrescriber)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, "p2", items[1].ID)

	require.NoError(t, repo.Delete(ctx, "p1"))
	require.ErrorIs(t, repo.Delete(ctx, "p1"), actors.ErrNotFound)

	_, err = repo.GetByID(ctx, "p1")
	require.ErrorIs(t, err, actors.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "p1@x")
	require.ErrorIs(t, err, actors.ErrNotFound)
}

func TestStore_ReferencedActorCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedActors(t, s, presc1, disp1)

	require.NoError(t, s.Prescriptions().Create(ctx, prescriptions.Prescription{ID: "rx", IssuedBy: presc1.ID}))
	_, err := s.Prescriptions().MarkFilled(ctx, "rx", disp1.ID, time.Now())
	require.NoError(t, err)

	require.ErrorIs(t, s.Actors().Delete(ctx, presc1.ID), actors.ErrInUse)
	require.ErrorIs(t, s.Actors().Delete(ctx, disp1.ID), actors.ErrInUse)

	// al borrar la receta se liberan ambos
	require.NoError(t, s.Prescriptions().Delete(ctx, "rx"))
	require.NoError(t, s.Actors().Delete(ctx, presc1.ID))
	require.NoError(t, s.Actors().Delete(ctx, disp1.ID))
}

func TestPrescriptionRepo_CreateRequiresExistingPrescriber(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedActors(t, s, presc1, disp1)
	repo := s.Prescriptions()

	require.ErrorIs(t, repo.Create(ctx, prescriptions.Prescription{ID: "rx1", IssuedBy: "ghost"}), prescriptions.ErrNotFound)
	require.ErrorIs(t, repo.Create(ctx, prescriptions.Prescription{ID: "rx2", IssuedBy: disp1.ID}), prescriptions.ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// Un actor borrado entre la validación del servicio y el insert no deja
// una receta apuntando a nadie.
type deletingLookup struct {
	repo actors.Repository
}

func (l deletingLookup) Lookup(ctx context.Context, id string) (actors.Actor, error) {
	a, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return actors.Actor{}, err
	}
	if err := l.repo.Delete(ctx, id); err != nil {
		return actors.Actor{}, err
	}
	return a, nil
}

func TestStore_ActorDeletedDuringIssueLeavesNoDanglingPrescription(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedActors(t, s, presc1)

	svc := prescriptions.NewService(s.Prescriptions(), deletingLookup{repo: s.Actors()})

	_, err := svc.Issue(ctx, presc1.ID, prescriptions.IssueInput{Drug: "X"})
	require.ErrorIs(t, err, prescriptions.ErrNotFound)

	all, err := s.Prescriptions().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.Actors().GetByID(ctx, presc1.ID)
	require.ErrorIs(t, err, actors.ErrNotFound)
}

func TestStore_DispenserDeletedBeforeFillIsRejected(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedActors(t, s, presc1, disp1)

	require.NoError(t, s.Prescriptions().Create(ctx, prescriptions.Prescription{ID: "rx", IssuedBy: presc1.ID}))
	require.NoError(t, s.Actors().Delete(ctx, disp1.ID))

	_, err := s.Prescriptions().MarkFilled(ctx, "rx", disp1.ID, time.Now())
	require.ErrorIs(t, err, prescriptions.ErrNotFound)

	got, err := s.Prescriptions().GetByID(ctx, "rx")
	require.NoError(t, err)
	assert.False(t, got.Filled())
}

func TestPrescriptionRepo_MarkFilled(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedActors(t, s, presc1, disp1, disp2)
	repo := s.Prescriptions()
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, prescriptions.Prescription{ID: "rx", IssuedBy: presc1.ID, IssuedAt: at}))

	_, err := repo.MarkFilled(ctx, "missing", disp1.ID, at)
	require.ErrorIs(t, err, prescriptions.ErrNotFound)

	p, err := repo.MarkFilled(ctx, "rx", disp1.ID, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, disp1.ID, p.FilledBy)
	require.NotNil(t, p.FilledAt)

	_, err = repo.MarkFilled(ctx, "rx", disp2.ID, at.Add(2*time.Minute))
	require.ErrorIs(t, err, prescriptions.ErrAlreadyFilled)

	got, err := repo.GetByID(ctx, "rx")
	require.NoError(t, err)
	assert.Equal(t, disp1.ID, got.FilledBy)
	assert.True(t, got.FilledAt.Equal(at.Add(time.Minute)))
}

func TestPrescriptionRepo_ConcurrentFillHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedActors(t, s, presc1, disp1)
	repo := s.Prescriptions()
	require.NoError(t, repo.Create(ctx, prescriptions.Prescription{ID: "rx", IssuedBy: presc1.ID}))

	const n = 32
	results := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.MarkFilled(ctx, "rx", disp1.ID, time.Now())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok, conflicts := 0, 0
	for err := range results {
		switch err {
		case nil:
			ok++
		case prescriptions.ErrAlreadyFilled:
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestPrescriptionRepo_ListsAndReferences(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedActors(t, s, presc1, presc2, disp1, disp2)
	repo := s.Prescriptions()
	t0 := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, prescriptions.Prescription{ID: "b", IssuedBy: presc1.ID, IssuedAt: t0.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, prescriptions.Prescription{ID: "a", IssuedBy: presc1.ID, IssuedAt: t0}))
	require.NoError(t, repo.Create(ctx, prescriptions.Prescription{ID: "c", IssuedBy: presc2.ID, IssuedAt: t0}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := repo.ListByIssuer(ctx, presc1.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a", mine[0].ID)
	assert.Equal(t, "b", mine[1].ID)

	_, err = repo.MarkFilled(ctx, "c", disp1.ID, t0)
	require.NoError(t, err)

	for id, want := range map[string]bool{presc1.ID: true, presc2.ID: true, disp1.ID: true, disp2.ID: false} {
		got, err := repo.ReferencesActor(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}

	require.NoError(t, repo.Delete(ctx, "c"))
	require.ErrorIs(t, repo.Delete(ctx, "c"), prescriptions.ErrNotFound)

	used, err := repo.ReferencesActor(ctx, disp1.ID)
	require.NoError(t, err)
	assert.False(t, used)
}
