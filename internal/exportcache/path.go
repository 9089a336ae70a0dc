package exportcache

import "path"

// BuildStoragePath returns the blob path for one artifact, namespaced per
// plan so cache entries for different plans never collide:
//
//	plans/<planID>/exports/<templateVersion>/<contentHash>/<artifactType>
func BuildStoragePath(planID, templateVersion, contentHash, artifactType string) string {
	return path.Join("plans", planID, "exports", templateVersion, contentHash, artifactType)
}

// PlanExportPrefix is the path prefix holding every cached artifact for one
// plan; the pruning routine lists under it.
func PlanExportPrefix(planID string) string {
	return path.Join("plans", planID, "exports") + "/"
}
