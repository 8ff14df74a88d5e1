package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-imaris/internal/message"
	"github.com/robert-malhotra/go-imaris/internal/object"
)

// pendingLink represents a link to be written to the parent group.
type pendingLink struct {
	link *message.Link
}

// CreateGroup creates a new subgroup with the given name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if !g.file.writable {
		return nil, fmt.Errorf("file is not writable")
	}

	if name == "" {
		return nil, fmt.Errorf("group name cannot be empty")
	}

	// Calculate the path for the new group
	newPath := path.Join(g.path, name)
	if g.path == "/" {
		newPath = "/" + name
	}

	// Create an empty group object header
	groupMessages := object.NewEmptyGroupHeader()

	// Calculate header size and allocate space
	headerSize := object.HeaderSize(g.file.writer, groupMessages)
	groupAddr := g.file.allocate(int64(headerSize))

	// Write the group object header
	w := g.file.writer.At(int64(groupAddr))
	if _, err := object.WriteHeader(w, groupMessages); err != nil {
		return nil, fmt.Errorf("writing group header: %w", err)
	}

	// Create a hard link from parent to this group
	link := message.NewHardLink(name, groupAddr)

	// Add the link to the parent group
	if err := g.addLink(link); err != nil {
		return nil, fmt.Errorf("adding link to parent: %w", err)
	}

	// Create the Group object
	newGroup := &Group{
		file:         g.file,
		path:         newPath,
		header:       nil, // Will be loaded on demand if needed
		addr:         groupAddr,
		pendingLinks: nil,
	}
	g.file.trackGroup(newGroup)

	return newGroup, nil
}

// addLink adds a link message to this group.
// For writable files, this updates the group's object header.
func (g *Group) addLink(link *message.Link) error {
	if !g.file.writable {
		return fmt.Errorf("file is not writable")
	}

	// If pendingLinks is nil, we need to load existing links from the header
	if g.pendingLinks == nil {
		if err := g.loadExistingLinks(); err != nil {
			return fmt.Errorf("loading existing links: %w", err)
		}
	}

	g.pendingLinks = append(g.pendingLinks, link)

	// Rewrite the group's object header with the new link
	return g.rewriteHeader()
}

// loadExistingLinks loads existing link messages from the group's object header.
func (g *Group) loadExistingLinks() error {
	g.pendingLinks = make([]*message.Link, 0)

	// If we don't have a header loaded, try to load it
	if g.header == nil && g.file.reader != nil {
		header, err := object.Read(g.file.reader, g.addr)
		if err != nil {
			// If we can't read the header, start fresh (this is OK for new groups)
			return nil
		}
		g.header = header
	}

	// If we have a header, extract existing link messages
	if g.header != nil {
		linkMsgs := g.header.GetMessages(message.TypeLink)
		for _, msg := range linkMsgs {
			if linkMsg, ok := msg.(*message.Link); ok {
				g.pendingLinks = append(g.pendingLinks, linkMsg)
			}
		}
	}

	return nil
}

// rewriteHeader rewrites the group's object header with all pending links.
func (g *Group) rewriteHeader() error {
	// Create group header with LinkInfo and all links
	messages := object.NewGroupHeader(g.pendingLinks)

	// Calculate new header size with minimum chunk size for h5py compatibility
	headerSize := object.HeaderSizeWithMinChunk(g.file.writer, messages, object.MinGroupChunkSize)

	// Allocate new space (we can't resize in place, so allocate new)
	newAddr := g.file.allocate(int64(headerSize))

	// Write the new header
	w := g.file.writer.At(int64(newAddr))
	if _, err := object.WriteHeaderWithMinChunk(w, messages, object.MinGroupChunkSize); err != nil {
		return err
	}

	// Update our address
	g.addr = newAddr

	// If this is the root group, update the superblock
	if g.path == "/" {
		g.file.superblock.RootGroupAddress = newAddr
	} else {
		// Update parent's link to point to new address
		if err := g.updateParentLink(newAddr); err != nil {
			return err
		}
	}

	return nil
}

// updateParentLink updates the parent group's link to point to the new address.
// The update propagates upward: rewriting the parent's header relocates it too,
// so the parent in turn updates its own parent, up to the root.
func (g *Group) updateParentLink(newAddr uint64) error {
	parent, err := g.findParent()
	if err != nil {
		return fmt.Errorf("resolving parent of %q: %w", g.path, err)
	}

	// Make sure the parent's links are loaded before mutating them
	if parent.pendingLinks == nil {
		if err := parent.loadExistingLinks(); err != nil {
			return fmt.Errorf("loading links of %q: %w", parent.path, err)
		}
	}

	// Update the link in parent's pending links
	name := path.Base(g.path)
	found := false
	for _, link := range parent.pendingLinks {
		if link.Name == name {
			link.ObjectAddress = newAddr
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("group %q has no link to %q", parent.path, name)
	}

	// Rewrite parent's header
	return parent.rewriteHeader()
}

// findParent finds the parent group in the file's group hierarchy.
// Groups created or opened during this session are looked up in the file's
// group registry so nested hierarchies resolve to the live instances.
func (g *Group) findParent() (*Group, error) {
	if g.path == "/" {
		return nil, fmt.Errorf("root group has no parent")
	}

	parentPath := path.Dir(g.path)
	if parentPath == "" || parentPath == "." {
		parentPath = "/"
	}

	if parentPath == "/" {
		return g.file.root, nil
	}

	if p := g.file.trackedGroup(parentPath); p != nil {
		return p, nil
	}

	// Not created in this session - load it from the file
	if g.file.reader == nil {
		return nil, fmt.Errorf("group %s not found in write registry", parentPath)
	}
	p, err := g.file.OpenGroup(parentPath)
	if err != nil {
		return nil, err
	}
	g.file.trackGroup(p)
	return p, nil
}
