// Package memory is an in-process store used by tests and by single-node
// deployments that do not want a database. It honors the same conditional
// update contract as the postgres store: guards are evaluated and changes
// applied under one lock, so a failed guard leaves the row untouched.
package memory

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/store"
)

type data struct {
	mu           sync.RWMutex
	sessions     map[uuid.UUID]domain.Session
	games        map[uuid.UUID]domain.Game
	participants map[uuid.UUID]domain.Participant
	messages     []domain.Message
}

// New returns an empty store.
func New() *store.Store {
	d := &data{
		sessions:     make(map[uuid.UUID]domain.Session),
		games:        make(map[uuid.UUID]domain.Game),
		participants: make(map[uuid.UUID]domain.Participant),
	}
	return &store.Store{
		Sessions:     &sessions{d: d},
		Games:        &games{d: d},
		Participants: &participants{d: d},
		Messages:     &messages{d: d},
	}
}

func checkConds(conds []store.Cond, column func(string) (any, bool)) error {
	for _, c := range conds {
		cur, ok := column(c.Column)
		if !ok {
			return fmt.Errorf("memory: unknown guard column %q", c.Column)
		}
		if !condMatch(cur, c) {
			return store.ErrConditionFailed
		}
	}
	return nil
}

func condMatch(current any, c store.Cond) bool {
	eq := scalarEqual(current, c.Value)
	if c.Op == store.OpNeq {
		return !eq
	}
	return eq
}

func scalarEqual(a, b any) bool {
	an, bn := normalize(a), normalize(b)
	if an == nil || bn == nil {
		return an == nil && bn == nil
	}
	return an == bn
}

// normalize flattens pointers and named scalar types so that e.g. a
// domain.Side guard value compares equal to the plain string a caller used.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	default:
		return rv.Interface()
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlots(s domain.ChampionSlots) domain.ChampionSlots {
	if s == nil {
		return nil
	}
	out := make(domain.ChampionSlots, len(s))
	for i, c := range s {
		out[i] = clonePtr(c)
	}
	return out
}

func cloneEdits(e domain.EditedPicks) domain.EditedPicks {
	d := e.Data()
	if d == nil {
		return e
	}
	edits := make(map[string]string, len(d))
	for k, v := range d {
		edits[k] = v
	}
	return domain.NewEditedPicks(edits)
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return fmt.Sprint(v)
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	}
	return 0
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

func asUUIDPtr(v any) *uuid.UUID {
	switch t := v.(type) {
	case *uuid.UUID:
		return clonePtr(t)
	case uuid.UUID:
		return &t
	}
	return nil
}

func asTimePtr(v any) *time.Time {
	switch t := v.(type) {
	case *time.Time:
		return clonePtr(t)
	case time.Time:
		return &t
	}
	return nil
}

func asSidePtr(v any) *domain.Side {
	switch t := v.(type) {
	case *domain.Side:
		return clonePtr(t)
	case domain.Side:
		return &t
	case string:
		s := domain.Side(t)
		return &s
	}
	return nil
}

func asPhasePtr(v any) *domain.Phase {
	switch t := v.(type) {
	case *domain.Phase:
		return clonePtr(t)
	case domain.Phase:
		return &t
	case string:
		p := domain.Phase(t)
		return &p
	}
	return nil
}
