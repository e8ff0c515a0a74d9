package mergecmder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tickertape/pkg/merkle"
)

var _ = Describe("Merge Command", func() {
	var (
		ctx     context.Context
		tmpDir  string
		srcPath string
		dstPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "tickertape-merge-test-*")
		Expect(err).NotTo(HaveOccurred())
		srcPath = filepath.Join(tmpDir, "source.db")
		dstPath = filepath.Join(tmpDir, "target.db")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	makeNode := func(role, text string, parent *merkle.Node) *merkle.Node {
		return merkle.NewNode(merkle.Bucket{
			Type:           "message",
			Role:           role,
			Text:           text,
			ContentType:    "text",
			ConversationID: "conv-1",
		}, parent)
	}

	seed := func(path string, nodes ...*merkle.Node) {
		s, err := merkle.NewSQLiteStorer(path)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()
		for _, n := range nodes {
			_, err := s.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	listTarget := func() []*merkle.Node {
		s, err := merkle.NewSQLiteStorer(dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()
		nodes, err := s.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		return nodes
	}

	It("merges nodes from source into target", func() {
		nodeA := makeNode("user", "hello from source", nil)
		nodeB := makeNode("agent", "hi back", nodeA)
		seed(srcPath, nodeA, nodeB)
		seed(dstPath, makeNode("user", "hello from target", nil))

		cmd := NewMergeCmd()
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		Expect(listTarget()).To(HaveLen(3))
	})

	It("skips nodes the target already has", func() {
		nodeA := makeNode("user", "shared", nil)
		seed(srcPath, nodeA, makeNode("agent", "only in source", nodeA))
		seed(dstPath, nodeA)

		out := &bytes.Buffer{}
		cmd := NewMergeCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("1 new, 1 already existed"))
		Expect(listTarget()).To(HaveLen(2))
	})

	It("merges several sources", func() {
		otherPath := filepath.Join(tmpDir, "other.db")
		seed(srcPath, makeNode("user", "from one", nil))
		seed(otherPath, makeNode("user", "from two", nil))

		cmd := NewMergeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath, otherPath})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		Expect(listTarget()).To(HaveLen(2))
	})

	It("requires a source", func() {
		cmd := NewMergeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--sqlite", dstPath})
		Expect(cmd.ExecuteContext(ctx)).NotTo(Succeed())
	})

	It("requires a target", func() {
		cmd := NewMergeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{srcPath})
		Expect(cmd.ExecuteContext(ctx)).NotTo(Succeed())
	})
})
