package tree

import "github.com/acheong08/pkgdrift/pkg/models"

// Walk visits every node in pre-order with its depth (roots are 0).
func Walk(nodes []*models.DependencyNode, fn func(node *models.DependencyNode, depth int)) {
	WalkPath(nodes, func(path []*models.DependencyNode) {
		fn(path[len(path)-1], len(path)-1)
	})
}

// WalkPath visits every node in pre-order with the chain of nodes from its root.
// The slice is reused between calls; copy it to keep it.
func WalkPath(nodes []*models.DependencyNode, fn func(path []*models.DependencyNode)) {
	var path []*models.DependencyNode
	var visit func(n *models.DependencyNode)
	visit = func(n *models.DependencyNode) {
		path = append(path, n)
		fn(path)
		for _, c := range n.Children {
			visit(c)
		}
		path = path[:len(path)-1]
	}
	for _, n := range nodes {
		visit(n)
	}
}
