package usecase

import (
	"strings"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
)

// Reconcile merges the tag history with the release collection. A release
// enters the manifest only when its tag has a record and it is neither a
// draft nor a prerelease. Entries follow the order of releases.
func Reconcile(tags *model.TagRecords, releases *model.ReleaseCollection) *model.Manifest {
	manifest := model.NewManifest()

	for tag, release := range releases.All() {
		record, ok := tags.Get(tag)
		if !ok || !release.IsPublic() {
			continue
		}

		manifest.Set(tag, &model.FinalRelease{
			Tag:       tag,
			Name:      strings.TrimPrefix(tag, "v"),
			Channel:   release.Channel(),
			Commit:    record.Commit,
			Published: release.PublishedAt,
			Dependencies: model.Dependencies{
				Chrome:   record.ChromeVersion,
				Widevine: record.WidevineVersion,
			},
			GitHub: model.GitHubInfo{
				ReleaseID: release.ID,
				Assets:    convertAssets(release.Assets),
			},
		})
	}

	return manifest
}

func convertAssets(assets []*model.RemoteAsset) []*model.FinalAsset {
	result := make([]*model.FinalAsset, 0, len(assets))
	for _, a := range assets {
		result = append(result, &model.FinalAsset{
			ID:          a.ID,
			Name:        a.Name,
			DownloadURL: a.BrowserDownloadURL,
		})
	}
	return result
}
