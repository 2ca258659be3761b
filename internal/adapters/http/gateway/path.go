package gateway

import "strings"

// portArtifact はホスティング環境がパスセグメント末尾に付与する余分な接尾辞です。
const portArtifact = ":1"

// NormalizePath はインバウンドのパスからバックエンド向けの相対パスを求めます。
// mountPrefix と先頭のスラッシュを取り除き、空のセグメントは捨てます。
// stripArtifact が true の場合、各セグメント末尾の ":1" を繰り返し除去します。
// 末尾以外の ":1" は残すため、"jobs/:15" や "time:10" は変化しません。
// 結果に対して再度適用しても変化しません。
func NormalizePath(path, mountPrefix string, stripArtifact bool) string {
	prefix := strings.TrimRight(mountPrefix, "/")
	if prefix != "" && (path == prefix || strings.HasPrefix(path, prefix+"/")) {
		path = path[len(prefix):]
	}

	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if stripArtifact {
			for strings.HasSuffix(seg, portArtifact) {
				seg = strings.TrimSuffix(seg, portArtifact)
			}
		}
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}

	return strings.Join(segments, "/")
}
