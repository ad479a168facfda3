package curriculum_test

import (
	"fmt"

	"github.com/matzehuels/curricula/pkg/curriculum"
)

func ExampleMakeIdentity() {
	cs := curriculum.MakeIdentity("CS101", "CS")
	ee := curriculum.MakeIdentity("CS101", "EE")
	bare := curriculum.MakeIdentity("CS101", "")

	fmt.Println(cs, ee, bare)
	fmt.Println(cs == ee)
	fmt.Println(cs.Code(), cs.Program())
	// Output:
	// CS101|CS CS101|EE CS101
	// false
	// CS101 CS
}

func ExampleDataset() {
	ds := curriculum.NewDataset("CS")
	ds.AddNode(curriculum.Node{ID: "CS101|CS", Label: "Intro", Level: 1})
	ds.AddNode(curriculum.Node{ID: "CS201|CS", Label: "Data Structures", Level: 2})
	ds.AddEdge(curriculum.Edge{Source: "CS101|CS", Target: "CS201|CS", Kind: curriculum.KindDirect})

	for _, n := range ds.Nodes() {
		fmt.Printf("%s level=%d\n", n.Code, n.Level)
	}
	fmt.Println("edges:", ds.EdgeCount())
	// Output:
	// CS101 level=1
	// CS201 level=2
	// edges: 1
}
