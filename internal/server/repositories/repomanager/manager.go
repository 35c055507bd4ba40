// Package repomanager vends repositories bound to a *sql.DB or *sql.Tx so
// services can run several of them inside one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskjournal/internal/dbx"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/entries"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/journals"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/members"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/userinfo"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	UserInfo(db dbx.DBTX) userinfo.Repository
	Journals(db dbx.DBTX) journals.Repository
	Entries(db dbx.DBTX) entries.Repository
	Members(db dbx.DBTX) members.Repository
}
