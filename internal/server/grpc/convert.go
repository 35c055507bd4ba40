package grpc

import (
	"github.com/dmitrijs2005/taskjournal/internal/api"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
)

func journalToAPI(j *models.Journal) api.Journal {
	return api.Journal{
		UID:        j.UID,
		Version:    int32(j.Version),
		Owner:      j.Owner,
		Info:       api.Entry{UID: j.InfoUID, Content: j.InfoContent, Tag: j.InfoTag},
		WrappedKey: j.WrappedKey,
		Head:       j.Head,
	}
}

func journalFromAPI(j api.Journal) *models.Journal {
	return &models.Journal{
		UID:         j.UID,
		Version:     int(j.Version),
		InfoUID:     j.Info.UID,
		InfoContent: j.Info.Content,
		InfoTag:     j.Info.Tag,
	}
}

func entriesToAPI(in []models.Entry) []api.Entry {
	out := make([]api.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, api.Entry{UID: e.UID, Content: e.Content, Tag: e.Tag})
	}
	return out
}

func entriesFromAPI(journalUID string, in []api.Entry) []models.Entry {
	out := make([]models.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, models.Entry{JournalUID: journalUID, UID: e.UID, Content: e.Content, Tag: e.Tag})
	}
	return out
}

func userInfoToAPI(owner string, u *models.UserInfo) api.UserInfo {
	return api.UserInfo{
		Owner:     owner,
		Version:   int32(u.Version),
		PublicKey: u.PublicKey,
		Content:   u.Content,
		Tag:       u.Tag,
	}
}
