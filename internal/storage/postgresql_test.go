package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisminnick/starboard2/internal/models"
)

func TestStorage_Integration(t *testing.T) {
	s := setupTestDatabase(t)
	f := &testDataFactory{storage: s}
	ctx := context.Background()

	t.Run("CheckDatabaseReady", func(t *testing.T) {
		require.NoError(t, CheckDatabaseReady(ctx, s))
	})

	t.Run("users", func(t *testing.T) {
		u := f.createUser(t, "Writer@Example.com")
		assert.Equal(t, "writer@example.com", u.Email)
		assert.Equal(t, models.SubscriptionTrial, u.Subscription.Status)

		_, err := s.CreateUser(ctx, models.NewUser("Dup", "WRITER@example.com", "h", time.Now()))
		require.ErrorIs(t, err, ErrUserExists)

		byEmail, err := s.GetUserByEmail(ctx, "writer@EXAMPLE.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, "$2a$12$hash", byEmail.PasswordHash)

		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetUser(ctx, "not-a-uuid")
		require.ErrorIs(t, err, ErrNotFound)

		prefs := models.Preferences{DefaultTemplate: models.TemplateBlog, AutoSaveInterval: 5000, EditorTheme: models.ThemeDark}
		require.NoError(t, s.UpdatePreferences(ctx, u.ID, prefs))
		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, prefs, got.Preferences)

		require.ErrorIs(t, s.UpdatePreferences(ctx, uuid.NewString(), prefs), ErrNotFound)
	})

	t.Run("trials ending", func(t *testing.T) {
		now := time.Now().UTC()
		soon := models.NewUser("Soon", "soon@example.com", "h", now.Add(-models.TrialPeriod+2*time.Hour))
		_, err := s.CreateUser(ctx, soon)
		require.NoError(t, err)

		paid := models.NewUser("Paid", "paid@example.com", "h", now.Add(-models.TrialPeriod+2*time.Hour))
		paid.Subscription.Status = models.SubscriptionActive
		_, err = s.CreateUser(ctx, paid)
		require.NoError(t, err)

		reminders, err := s.FindTrialsEndingBetween(ctx, now, now.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, "soon@example.com", reminders[0].Email)

		require.NoError(t, s.MarkTrialReminded(ctx, reminders[0].UserID, now))
		reminders, err = s.FindTrialsEndingBetween(ctx, now, now.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, reminders)

		require.ErrorIs(t, s.MarkTrialReminded(ctx, uuid.NewString(), now), ErrNotFound)
	})

	t.Run("project lifecycle", func(t *testing.T) {
		owner := f.createUser(t, "owner@example.com")
		other := f.createUser(t, "other@example.com")

		p := f.createProject(t, owner.ID, "Moby Dick Retold")
		assert.Equal(t, 0, p.CurrentWordCount)
		assert.Equal(t, models.StatusDraft, p.Status)
		assert.Equal(t, models.DefaultSettings(), p.Settings)

		_, err := s.GetProject(ctx, other.ID, p.ID)
		require.ErrorIs(t, err, ErrNotFound)

		updated := f.setContent(t, owner.ID, p.ID, "Call me Ishmael.")
		assert.Equal(t, 3, updated.CurrentWordCount)
		require.Len(t, updated.Versions, 1)
		assert.Equal(t, 1, updated.Versions[0].Number)
		assert.Equal(t, "", updated.Versions[0].Content)
		assert.Equal(t, models.AutoSaveComment, updated.Versions[0].Comment)

		updated = f.setContent(t, owner.ID, p.ID, "Call me Ishmael.")
		assert.Len(t, updated.Versions, 1, "same content adds no version")

		v, err := s.CreateVersion(ctx, owner.ID, p.ID, "checkpoint")
		require.NoError(t, err)
		assert.Equal(t, 2, v.Number)
		assert.Equal(t, "Call me Ishmael.", v.Content)

		_, err = s.CreateVersion(ctx, other.ID, p.ID, "steal")
		require.ErrorIs(t, err, ErrNotFound)

		versions, err := s.ListVersions(ctx, owner.ID, p.ID)
		require.NoError(t, err)
		require.Len(t, versions, 2)

		second := f.createProject(t, owner.ID, "Field Notes")
		list, err := s.ListProjects(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID, "most recently updated first")

		found, err := s.SearchProjects(ctx, owner.ID, "moby", 20)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, p.ID, found[0].ID)

		found, err = s.SearchProjects(ctx, other.ID, "moby", 20)
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = s.SearchProjects(ctx, owner.ID, "%", 20)
		require.NoError(t, err)
		assert.Empty(t, found, "wildcards are literal")

		require.ErrorIs(t, s.DeleteProject(ctx, other.ID, p.ID), ErrNotFound)
		require.NoError(t, s.DeleteProject(ctx, owner.ID, p.ID))
		_, err = s.GetProject(ctx, owner.ID, p.ID)
		require.ErrorIs(t, err, ErrNotFound)

		var count int
		require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM project_versions WHERE project_id = $1`, p.ID).Scan(&count))
		assert.Zero(t, count, "versions cascade")
	})

	t.Run("mutate error rolls back", func(t *testing.T) {
		owner := f.createUser(t, "rollback@example.com")
		p := f.createProject(t, owner.ID, "Draft")

		boom := errors.New("boom")
		_, err := s.UpdateProject(ctx, owner.ID, p.ID, func(p *models.Project) (*models.Version, error) {
			p.Title = "changed"
			return nil, boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.GetProject(ctx, owner.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Draft", got.Title)
	})

	t.Run("concurrent autosaves keep ordinals gapless", func(t *testing.T) {
		owner := f.createUser(t, "race@example.com")
		p := f.createProject(t, owner.ID, "Race")

		const writers = 8
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				content := "draft " + uuid.NewString()
				_, err := s.UpdateProject(ctx, owner.ID, p.ID, func(p *models.Project) (*models.Version, error) {
					return p.Apply(models.ProjectPatch{Content: &content}), nil
				})
				assert.NoError(t, err, "writer %d", i)
			}(i)
		}
		wg.Wait()

		versions, err := s.ListVersions(ctx, owner.ID, p.ID)
		require.NoError(t, err)
		require.Len(t, versions, writers)
		for i, v := range versions {
			assert.Equal(t, i+1, v.Number)
		}
	})

	t.Run("interactions", func(t *testing.T) {
		owner := f.createUser(t, "advice@example.com")
		other := f.createUser(t, "nosy@example.com")
		p := f.createProject(t, owner.ID, "Advice")

		chat, err := s.AddInteraction(ctx, owner.ID, p.ID, models.Interaction{
			AdvisorRole:     models.RoleEditor,
			InteractionType: models.InteractionChat,
			Content:         "User: hi\nAdvisor: hello",
		}, "\nUser: hi\nAdvisor: hello")
		require.NoError(t, err)
		assert.False(t, chat.Resolved)

		_, err = s.AddInteraction(ctx, owner.ID, p.ID, models.Interaction{
			AdvisorRole:     models.RoleEditor,
			InteractionType: models.InteractionChat,
			Content:         "User: again\nAdvisor: sure",
		}, "\nUser: again\nAdvisor: sure")
		require.NoError(t, err)

		comment, err := s.AddInteraction(ctx, owner.ID, p.ID, models.Interaction{
			AdvisorRole:     models.RoleCopyEditor,
			InteractionType: models.InteractionInlineComment,
			Content:         "Comma splice.",
			Position:        &models.Position{Start: 3, End: 9},
		}, "")
		require.NoError(t, err)
		require.NotNil(t, comment.Position)
		assert.Equal(t, models.Position{Start: 3, End: 9}, *comment.Position)

		_, err = s.AddInteraction(ctx, other.ID, p.ID, models.Interaction{
			AdvisorRole: models.RoleReader, InteractionType: models.InteractionChat, Content: "x",
		}, "")
		require.ErrorIs(t, err, ErrNotFound)

		full, err := s.GetProject(ctx, owner.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "\nUser: hi\nAdvisor: hello\nUser: again\nAdvisor: sure", full.AdvisorMemory.Editor)
		assert.Empty(t, full.AdvisorMemory.CopyEditor)
		assert.Len(t, full.AdvisorInteractions, 3)

		editorOnly, err := s.ListInteractions(ctx, owner.ID, p.ID, models.InteractionFilter{Role: models.RoleEditor})
		require.NoError(t, err)
		assert.Len(t, editorOnly, 2)

		require.NoError(t, s.ResolveInteraction(ctx, owner.ID, p.ID, comment.ID))
		require.NoError(t, s.ResolveInteraction(ctx, owner.ID, p.ID, comment.ID), "resolve is idempotent")
		require.ErrorIs(t, s.ResolveInteraction(ctx, owner.ID, p.ID, uuid.NewString()), ErrNotFound)
		require.ErrorIs(t, s.ResolveInteraction(ctx, other.ID, p.ID, comment.ID), ErrNotFound)

		unresolved := false
		open, err := s.ListInteractions(ctx, owner.ID, p.ID, models.InteractionFilter{Resolved: &unresolved})
		require.NoError(t, err)
		assert.Len(t, open, 2)
		for _, i := range open {
			assert.NotEqual(t, comment.ID, i.ID)
		}

		_, err = s.ListInteractions(ctx, other.ID, p.ID, models.InteractionFilter{})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestValidID(t *testing.T) {
	assert.True(t, validID(uuid.NewString(), uuid.NewString()))
	assert.False(t, validID(uuid.NewString(), "42"))
	assert.False(t, validID(""))
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\% off\_sale \\o/`, likeEscaper.Replace(`50% off_sale \o/`))
}
