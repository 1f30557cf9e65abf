package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func draftingGame() domain.Game {
	side := domain.SideBlue
	phase := domain.PhaseBan1
	return domain.Game{
		ID:           uuid.New(),
		SessionID:    uuid.New(),
		GameNumber:   1,
		BlueSideTeam: domain.Team1,
		Status:       domain.GameDrafting,
		CurrentPhase: &phase,
		CurrentTurn:  &side,
		BlueBans:     domain.NewChampionSlots(),
		RedBans:      domain.NewChampionSlots(),
		BluePicks:    domain.NewChampionSlots(),
		RedPicks:     domain.NewChampionSlots(),
		TurnStartedAt: func() *time.Time {
			t := t0
			return &t
		}(),
	}
}

// advance plays the sequence up to (not including) index, filling slots with
// generated champion names.
func advance(t *testing.T, g domain.Game, index int) domain.Game {
	t.Helper()
	for i := 0; i < index; i++ {
		step, _ := StepAt(i)
		next, _, err := Apply(g, Carryover{}, Submission{
			Side:     step.Side,
			Action:   step.Action,
			Champion: fmt.Sprintf("champ%02d", i),
		}, t0)
		if err != nil {
			t.Fatalf("advance to %d: step %d failed: %v", index, i, err)
		}
		g = next
	}
	return g
}

func TestSequenceShape(t *testing.T) {
	if SequenceLen != 20 {
		t.Fatalf("sequence length = %d, want 20", SequenceLen)
	}

	counts := map[Step]int{}
	for _, step := range Sequence {
		counts[step]++
	}
	for _, side := range []domain.Side{domain.SideBlue, domain.SideRed} {
		for _, action := range []Action{ActionBan, ActionPick} {
			if n := counts[Step{side, action}]; n != 5 {
				t.Fatalf("%s %s count = %d, want 5", side, action, n)
			}
		}
	}

	phases := []struct {
		index int
		want  domain.Phase
	}{
		{0, domain.PhaseBan1},
		{5, domain.PhaseBan1},
		{6, domain.PhasePick1},
		{11, domain.PhasePick1},
		{12, domain.PhaseBan2},
		{15, domain.PhaseBan2},
		{16, domain.PhasePick2},
		{19, domain.PhasePick2},
	}
	for _, p := range phases {
		if got := PhaseAt(p.index); got != p.want {
			t.Fatalf("PhaseAt(%d) = %s, want %s", p.index, got, p.want)
		}
	}

	// Every side/action pair must fill slots 0-4 exactly once.
	seen := map[Step]map[int]bool{}
	for i := range Sequence {
		step := Sequence[i]
		if seen[step] == nil {
			seen[step] = map[int]bool{}
		}
		slot := SlotAt(i)
		if seen[step][slot] {
			t.Fatalf("step %v fills slot %d twice", step, slot)
		}
		seen[step][slot] = true
	}
	for step, slots := range seen {
		for s := 0; s < domain.SlotsPerSide; s++ {
			if !slots[s] {
				t.Fatalf("step %v never fills slot %d", step, s)
			}
		}
	}
}

func TestApplyRejectsOutOfTurn(t *testing.T) {
	cases := []struct {
		name  string
		index int
		sub   Submission
	}{
		{
			name:  "wrong side on first ban",
			index: 0,
			sub:   Submission{Side: domain.SideRed, Action: ActionBan, Champion: "Aatrox"},
		},
		{
			name:  "pick during ban phase",
			index: 0,
			sub:   Submission{Side: domain.SideBlue, Action: ActionPick, Champion: "Aatrox"},
		},
		{
			name:  "ban during pick phase",
			index: 6,
			sub:   Submission{Side: domain.SideBlue, Action: ActionBan, Champion: "Aatrox"},
		},
		{
			name:  "wrong side mid pick round",
			index: 8,
			sub:   Submission{Side: domain.SideBlue, Action: ActionPick, Champion: "Aatrox"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := advance(t, draftingGame(), tc.index)
			_, _, err := Apply(g, Carryover{}, tc.sub, t0)
			if !errors.Is(err, ErrWrongTurn) {
				t.Fatalf("want ErrWrongTurn, got %v", err)
			}
		})
	}
}

func TestApplyRejectsReusedChampion(t *testing.T) {
	g := advance(t, draftingGame(), 7) // blue picked champ06 at index 6

	cases := []struct {
		name     string
		champion string
	}{
		{"champion picked this game", "champ06"},
		{"champion banned this game", "champ00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Apply(g, Carryover{}, Submission{
				Side:     domain.SideRed,
				Action:   ActionPick,
				Champion: tc.champion,
			}, t0)
			if !errors.Is(err, ErrChampionUnavailable) {
				t.Fatalf("want ErrChampionUnavailable, got %v", err)
			}
		})
	}
}

func TestApplyCarryoverModes(t *testing.T) {
	prior := draftingGame()
	prior = advance(t, prior, SequenceLen) // completed game: champ00..champ19

	cases := []struct {
		name     string
		mode     domain.DraftMode
		champion string
		wantErr  bool
	}{
		{"normal ignores prior picks", domain.ModeNormal, "champ06", false},
		{"fearless blocks prior pick", domain.ModeFearless, "champ06", true},
		{"fearless allows prior ban", domain.ModeFearless, "champ00", false},
		{"ironman blocks prior pick", domain.ModeIronman, "champ06", true},
		{"ironman blocks prior ban", domain.ModeIronman, "champ00", true},
		{"fearless allows unused champion", domain.ModeFearless, "Zyra", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			carry := CollectCarryover(tc.mode, []domain.Game{prior})
			g := draftingGame()
			_, _, err := Apply(g, carry, Submission{
				Side:     domain.SideBlue,
				Action:   ActionBan,
				Champion: tc.champion,
			}, t0)
			if tc.wantErr && !errors.Is(err, ErrChampionUnavailable) {
				t.Fatalf("want ErrChampionUnavailable, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestCollectCarryoverSkipsPendingGames(t *testing.T) {
	pending := draftingGame()
	pending.Status = domain.GamePending
	champ := "Ahri"
	pending.BluePicks[0] = &champ

	carry := CollectCarryover(domain.ModeIronman, []domain.Game{pending})
	if carry.Blocks("Ahri") {
		t.Fatalf("pending game must not contribute to carryover")
	}
}

func TestApplyCompletesFullDraft(t *testing.T) {
	g := draftingGame()
	var final Result
	for i := 0; i < SequenceLen; i++ {
		step, _ := StepAt(i)
		next, res, err := Apply(g, Carryover{}, Submission{
			Side:     step.Side,
			Action:   step.Action,
			Champion: fmt.Sprintf("champ%02d", i),
		}, t0.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.Slot != SlotAt(i) {
			t.Fatalf("step %d landed in slot %d, want %d", i, res.Slot, SlotAt(i))
		}
		g, final = next, res
	}

	if !final.Completed {
		t.Fatalf("last step did not report completion")
	}
	if g.Status != domain.GameCompleted {
		t.Fatalf("status = %s, want completed", g.Status)
	}
	if g.CurrentPhase != nil || g.CurrentTurn != nil || g.TurnStartedAt != nil {
		t.Fatalf("turn fields must clear on completion")
	}
	if g.CompletedAt == nil {
		t.Fatalf("CompletedAt not set")
	}
	for _, slots := range []domain.ChampionSlots{g.BlueBans, g.RedBans, g.BluePicks, g.RedPicks} {
		for i, c := range slots {
			if c == nil {
				t.Fatalf("slot %d left undecided", i)
			}
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	g := draftingGame()
	snapshotIndex := g.CurrentActionIndex

	next, _, err := Apply(g, Carryover{}, Submission{
		Side:     domain.SideBlue,
		Action:   ActionBan,
		Champion: "Aatrox",
	}, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if g.CurrentActionIndex != snapshotIndex {
		t.Fatalf("input game index mutated")
	}
	if g.BlueBans[0] != nil {
		t.Fatalf("input slot array mutated")
	}
	if next.BlueBans[0] == nil || *next.BlueBans[0] != "Aatrox" {
		t.Fatalf("returned copy missing the ban")
	}
}

func TestApplyValidation(t *testing.T) {
	completed := draftingGame()
	completed.Status = domain.GameCompleted

	pending := draftingGame()
	pending.Status = domain.GamePending

	cases := []struct {
		name string
		game domain.Game
		sub  Submission
		want error
	}{
		{
			name: "missing champion",
			game: draftingGame(),
			sub:  Submission{Side: domain.SideBlue, Action: ActionBan},
			want: ErrChampionRequired,
		},
		{
			name: "completed game",
			game: completed,
			sub:  Submission{Side: domain.SideBlue, Action: ActionBan, Champion: "Aatrox"},
			want: ErrGameNotDrafting,
		},
		{
			name: "pending game",
			game: pending,
			sub:  Submission{Side: domain.SideBlue, Action: ActionBan, Champion: "Aatrox"},
			want: ErrGameNotDrafting,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Apply(tc.game, Carryover{}, tc.sub, t0)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestApplyRejectsFilledSlot(t *testing.T) {
	g := draftingGame()
	champ := "Aatrox"
	g.BlueBans[0] = &champ

	_, _, err := Apply(g, Carryover{}, Submission{
		Side:     domain.SideBlue,
		Action:   ActionBan,
		Champion: "Ahri",
	}, t0)
	if !errors.Is(err, ErrSlotFilled) {
		t.Fatalf("want ErrSlotFilled, got %v", err)
	}
}

func TestStart(t *testing.T) {
	g := draftingGame()
	g.Status = domain.GamePending
	g.CurrentPhase = nil
	g.CurrentTurn = nil
	g.TurnStartedAt = nil

	started, err := Start(g, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if started.Status != domain.GameDrafting {
		t.Fatalf("status = %s, want drafting", started.Status)
	}
	if started.CurrentActionIndex != 0 {
		t.Fatalf("index = %d, want 0", started.CurrentActionIndex)
	}
	if started.CurrentPhase == nil || *started.CurrentPhase != domain.PhaseBan1 {
		t.Fatalf("phase = %v, want ban1", started.CurrentPhase)
	}
	if started.CurrentTurn == nil || *started.CurrentTurn != domain.SideBlue {
		t.Fatalf("turn = %v, want blue", started.CurrentTurn)
	}
	if started.TurnStartedAt == nil || started.StartedAt == nil {
		t.Fatalf("timestamps not set")
	}

	if _, err := Start(started, t0); !errors.Is(err, ErrGameNotDrafting) {
		t.Fatalf("starting a non-pending game: want ErrGameNotDrafting, got %v", err)
	}
}

func TestRandomLegal(t *testing.T) {
	g := advance(t, draftingGame(), 7)
	carry := Carryover{
		mode:  domain.ModeFearless,
		picks: map[string]struct{}{"Zed": {}},
		bans:  map[string]struct{}{},
	}
	rng := rand.New(rand.NewSource(1))

	// champ00 is banned this game, champ06 picked this game, Zed carried.
	pool := []string{"champ00", "champ06", "Zed", "Ahri"}
	got, ok := RandomLegal(&g, carry, pool, rng)
	if !ok || got != "Ahri" {
		t.Fatalf("got %q ok=%v, want Ahri", got, ok)
	}

	_, ok = RandomLegal(&g, carry, []string{"champ00", "Zed"}, rng)
	if ok {
		t.Fatalf("expected no legal champion")
	}
}

func TestDeadline(t *testing.T) {
	g := draftingGame()

	deadline, ok := Deadline(&g, 30, 20)
	if !ok {
		t.Fatalf("expected a deadline while drafting")
	}
	if want := t0.Add(20 * time.Second); !deadline.Equal(want) {
		t.Fatalf("ban deadline = %v, want %v", deadline, want)
	}

	g = advance(t, g, 6) // first pick turn
	deadline, ok = Deadline(&g, 30, 20)
	if !ok {
		t.Fatalf("expected a deadline on pick turn")
	}
	if want := t0.Add(30 * time.Second); !deadline.Equal(want) {
		t.Fatalf("pick deadline = %v, want %v", deadline, want)
	}

	left, ok := Remaining(&g, 30, 20, t0.Add(10*time.Second))
	if !ok || left != 20*time.Second {
		t.Fatalf("remaining = %v ok=%v, want 20s", left, ok)
	}
	left, _ = Remaining(&g, 30, 20, t0.Add(2*time.Minute))
	if left != 0 {
		t.Fatalf("remaining past deadline = %v, want 0", left)
	}

	g.Status = domain.GameCompleted
	if _, ok := Deadline(&g, 30, 20); ok {
		t.Fatalf("completed game must not have a deadline")
	}
}

func TestEditPick(t *testing.T) {
	g := advance(t, draftingGame(), SequenceLen)

	edited, err := EditPick(g, domain.SideBlue, 0, "Sion")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if edited.Status != domain.GameEditing {
		t.Fatalf("status = %s, want editing", edited.Status)
	}
	if got, _ := EffectivePick(&edited, domain.SideBlue, 0); got != "Sion" {
		t.Fatalf("effective pick = %q, want Sion", got)
	}
	// The drafted history stays intact underneath the correction.
	if *edited.BluePicks[0] == "Sion" {
		t.Fatalf("correction overwrote the drafted slot")
	}
	if got, _ := EffectivePick(&edited, domain.SideBlue, 1); got != *edited.BluePicks[1] {
		t.Fatalf("uncorrected slot changed")
	}

	done, err := FinishEditing(edited)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if done.Status != domain.GameCompleted {
		t.Fatalf("status = %s, want completed", done.Status)
	}

	cases := []struct {
		name     string
		game     domain.Game
		slot     int
		champion string
		want     error
	}{
		{"game still drafting", draftingGame(), 0, "Sion", ErrGameNotCompleted},
		{"slot out of range", g, 9, "Sion", ErrBadSlot},
		{"negative slot", g, -1, "Sion", ErrBadSlot},
		{"missing champion", g, 0, "", ErrChampionRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EditPick(tc.game, domain.SideBlue, tc.slot, tc.champion)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}

	undecided := draftingGame()
	undecided.Status = domain.GameCompleted
	if _, err := EditPick(undecided, domain.SideBlue, 0, "Sion"); !errors.Is(err, ErrBadSlot) {
		t.Fatalf("editing an undecided slot: want ErrBadSlot, got %v", err)
	}
}
