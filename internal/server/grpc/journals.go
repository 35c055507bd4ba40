package grpc

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/api"
)

func (s *GRPCServer) ListJournals(ctx context.Context, req *api.ListJournalsRequest) (*api.ListJournalsResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	journals, err := s.journals.List(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "ListJournals", err)
	}

	resp := &api.ListJournalsResponse{Journals: make([]api.Journal, 0, len(journals))}
	for _, j := range journals {
		resp.Journals = append(resp.Journals, journalToAPI(j))
	}
	return resp, nil
}

func (s *GRPCServer) FetchJournal(ctx context.Context, req *api.FetchJournalRequest) (*api.FetchJournalResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	j, err := s.journals.Get(ctx, userID, req.UID)
	if err != nil {
		return nil, s.toStatus(ctx, "FetchJournal", err)
	}
	return &api.FetchJournalResponse{Journal: journalToAPI(j)}, nil
}

func (s *GRPCServer) CreateJournal(ctx context.Context, req *api.CreateJournalRequest) (*api.CreateJournalResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.journals.Create(ctx, userID, journalFromAPI(req.Journal)); err != nil {
		return nil, s.toStatus(ctx, "CreateJournal", err)
	}
	return &api.CreateJournalResponse{}, nil
}

func (s *GRPCServer) UpdateJournal(ctx context.Context, req *api.UpdateJournalRequest) (*api.UpdateJournalResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.journals.UpdateInfo(ctx, userID, req.UID, req.Info.UID, req.Info.Content, req.Info.Tag); err != nil {
		return nil, s.toStatus(ctx, "UpdateJournal", err)
	}
	return &api.UpdateJournalResponse{}, nil
}

func (s *GRPCServer) DeleteJournal(ctx context.Context, req *api.DeleteJournalRequest) (*api.DeleteJournalResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.journals.Delete(ctx, userID, req.UID); err != nil {
		return nil, s.toStatus(ctx, "DeleteJournal", err)
	}
	return &api.DeleteJournalResponse{}, nil
}

func (s *GRPCServer) FetchEntries(ctx context.Context, req *api.FetchEntriesRequest) (*api.FetchEntriesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.journals.FetchEntries(ctx, userID, req.JournalUID, req.AfterUID, int(req.Limit))
	if err != nil {
		return nil, s.toStatus(ctx, "FetchEntries", err)
	}
	return &api.FetchEntriesResponse{Entries: entriesToAPI(entries)}, nil
}

func (s *GRPCServer) PushEntries(ctx context.Context, req *api.PushEntriesRequest) (*api.PushEntriesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	head, err := s.journals.PushEntries(ctx, userID, req.JournalUID, req.ExpectedHead, entriesFromAPI(req.JournalUID, req.Entries))
	if err != nil {
		return nil, s.toStatus(ctx, "PushEntries", err)
	}
	return &api.PushEntriesResponse{Head: head}, nil
}

func (s *GRPCServer) AddMember(ctx context.Context, req *api.AddMemberRequest) (*api.AddMemberResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.journals.AddMember(ctx, userID, req.JournalUID, req.Username, req.WrappedKey); err != nil {
		return nil, s.toStatus(ctx, "AddMember", err)
	}
	return &api.AddMemberResponse{}, nil
}
