package graph

import (
	"math"
	"sort"

	"github.com/utapyngo/code-analyzer/internal/model"
)

// RankFiles scores files by PageRank over file-to-file call edges (the
// caller's file points at every other file defining the callee) and sorts
// files by rank descending. Ties keep path order.
func RankFiles(files []model.FileFacts) {
	if len(files) == 0 {
		return
	}

	defines := make(map[string]map[string]struct{})
	for i := range files {
		f := files[i].Facts
		if f == nil {
			continue
		}
		add := func(name string) {
			if defines[name] == nil {
				defines[name] = make(map[string]struct{})
			}
			defines[name][files[i].Path] = struct{}{}
		}
		for _, fn := range f.Functions {
			add(fn.Name)
		}
		for _, cls := range f.Classes {
			add(cls.Name)
		}
	}

	nodes := make(map[string]struct{}, len(files))
	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	for i := range files {
		src := files[i].Path
		nodes[src] = struct{}{}
		if files[i].Facts == nil {
			continue
		}
		for _, c := range files[i].Facts.Calls {
			for _, tgt := range sortedKeys(defines[c.Callee]) {
				if tgt == src {
					continue
				}
				outEdges[src] = append(outEdges[src], tgt)
				outDegree[src]++
			}
		}
	}

	if len(outEdges) == 0 {
		uniform := 1.0 / float64(len(files))
		for i := range files {
			files[i].Rank = uniform
		}
	} else {
		ranks := pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)
		for i := range files {
			files[i].Rank = ranks[files[i].Path]
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Rank != files[j].Rank {
			return files[i].Rank > files[j].Rank
		}
		return files[i].Path < files[j].Path
	})
}

// TopFiles returns the first n files, or all of them when n <= 0.
func TopFiles(files []model.FileFacts, n int) []model.FileFacts {
	if n <= 0 || n >= len(files) {
		return files
	}
	return files[:n]
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Files that call nothing spread their rank evenly.
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			contrib := alpha * rank[src] / float64(outDegree[src])
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}
		rank = newRank
		if diff < tol {
			break
		}
	}

	return rank
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
