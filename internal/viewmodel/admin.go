package viewmodel

import (
	"fmt"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/reconcile"
	"github.com/hilthontt/parley/internal/realtime"
)

// AdminRedirect returns where a viewer who may not see the dashboard is
// sent, or "" for an administrator.
func AdminRedirect(user *apisdk.User) string {
	switch {
	case user == nil:
		return client.LoginPath
	case !user.IsAdmin():
		return client.RoomsPath
	}
	return ""
}

type DashboardSeqs struct {
	Users uint64
	Rooms uint64
}

type Dashboard struct {
	state  reconcile.AdminState
	filter reconcile.UserFilter
	loaded bool
}

func NewDashboard() Dashboard {
	return Dashboard{filter: reconcile.FilterAll}
}

func (d Dashboard) Seqs() DashboardSeqs {
	return DashboardSeqs{Users: d.state.Users.Seq(), Rooms: d.state.Rooms.Seq()}
}

// Loaded folds a completed fetch in. Parts missing from data are kept.
func (d Dashboard) Loaded(data DashboardData) Dashboard {
	if data.Stats != nil {
		d.state.Stats = *data.Stats
		d.state.HasStats = true
	}
	if data.Users != nil {
		d.state.Users = d.state.Users.Rebase(data.Users, data.Since.Users)
	}
	if data.Rooms != nil {
		d.state.Rooms = d.state.Rooms.Rebase(data.Rooms, data.Since.Rooms)
	}
	d.loaded = true
	return d
}

func (d Dashboard) IsLoaded() bool { return d.loaded }

func (d Dashboard) Apply(m realtime.Message) (Dashboard, reconcile.Effects, error) {
	state, eff, err := reconcile.ApplyAdminEvent(d.state, m)
	if err != nil {
		return d, reconcile.Effects{}, fmt.Errorf("dashboard: %w", err)
	}
	d.state = state
	return d, eff, nil
}

// RoomRemoved drops a room after a privileged delete succeeded.
func (d Dashboard) RoomRemoved(id string) Dashboard {
	d.state.Rooms = d.state.Rooms.Remove(id)
	return d
}

func (d Dashboard) RoomChanged(room apisdk.AdminRoom) Dashboard {
	d.state.Rooms = d.state.Rooms.Upsert(room)
	return d
}

func (d Dashboard) Filter() reconcile.UserFilter { return d.filter }

func (d Dashboard) CycleFilter() Dashboard {
	d.filter = d.filter.Next()
	return d
}

func (d Dashboard) Stats() (apisdk.AdminStats, bool) {
	return d.state.Stats, d.state.HasStats
}

// Users returns the users selected by the current filter.
func (d Dashboard) Users() []apisdk.AdminUser {
	return reconcile.FilterUsers(d.state.Users.Items(), d.filter)
}

func (d Dashboard) Rooms() []apisdk.AdminRoom {
	return d.state.Rooms.Items()
}

func (d Dashboard) Room(id string) (apisdk.AdminRoom, bool) {
	return d.state.Rooms.Get(id)
}

// Counts are derived from the whole user list, not the filtered view.
func (d Dashboard) Counts() (total, online, offline int) {
	return reconcile.UserCounts(d.state.Users.Items())
}
