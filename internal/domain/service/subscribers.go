package service

import (
	"slices"

	"github.com/ci-events/notify-server/internal/domain/entity"
)

// MatchSubscribers returns the users whose subscriptions intersect the
// event's teacher set or its organization set. Either interest is enough.
func MatchSubscribers(users []entity.User, teacherIDs, orgIDs []string) []entity.User {
	var matched []entity.User
	for _, user := range users {
		if intersects(user.SubscribedTeachers, teacherIDs) || intersects(user.SubscribedOrgs, orgIDs) {
			matched = append(matched, user)
		}
	}
	return matched
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}
