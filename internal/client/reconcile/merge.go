package reconcile

import (
	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// Merge returns the new partition of ownerID: every local row that is not
// synced, plus the snapshot records that do not collide with one of them.
// Synced local rows are replaced by the snapshot. A record repeated in the
// snapshot is adopted once.
func Merge[F models.Fields[F]](ownerID string, local []models.Record[F], snapshot []models.Remote[F]) []models.Record[F] {
	out := make([]models.Record[F], 0, len(local)+len(snapshot))

	serverIDs := make(map[int64]struct{})
	clientIDs := make(map[string]struct{})

	for _, rec := range local {
		if rec.IsSynced() {
			continue
		}
		out = append(out, rec)
		if rec.HasServerID() {
			serverIDs[rec.ServerID] = struct{}{}
		}
		if rec.ClientID != "" {
			clientIDs[rec.ClientID] = struct{}{}
		}
	}

	adopted := make(map[int64]struct{}, len(snapshot))

	for _, remote := range snapshot {
		if remote.ID == 0 {
			continue
		}
		if _, ok := serverIDs[remote.ID]; ok {
			continue
		}
		if _, ok := clientIDs[remote.ClientID]; ok && remote.ClientID != "" {
			continue
		}
		if _, ok := adopted[remote.ID]; ok {
			continue
		}
		adopted[remote.ID] = struct{}{}
		out = append(out, models.FromRemote(ownerID, remote))
	}

	return out
}
