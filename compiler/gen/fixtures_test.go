package gen

import (
	"github.com/syssam/zodgen/compiler/load"
)

func relation(name, target, relationName string, list, required bool, fks ...string) *load.Field {
	return &load.Field{
		Name:               name,
		Kind:               load.KindObject,
		Type:               target,
		IsList:             list,
		IsRequired:         required,
		RelationName:       relationName,
		RelationFromFields: fks,
	}
}

func idField() *load.Field {
	return &load.Field{Name: "id", Kind: load.KindScalar, Type: load.TypeInt, IsRequired: true, IsID: true, HasDefault: true}
}

// blogDoc is a User/Post schema with a one-to-many relation in both
// directions and a Role enum.
func blogDoc() *load.Document {
	return load.MustNewDocument([]*load.Model{
		{Name: "User", Fields: []*load.Field{
			idField(),
			{Name: "email", Kind: load.KindScalar, Type: load.TypeString, IsRequired: true, Documentation: "@zod.email()"},
			{Name: "password", Kind: load.KindScalar, Type: load.TypeString, IsRequired: true},
			{Name: "role", Kind: load.KindEnum, Type: "Role", IsRequired: true, HasDefault: true},
			{Name: "profile", Kind: load.KindScalar, Type: load.TypeJSON},
			{Name: "createdAt", Kind: load.KindScalar, Type: load.TypeDateTime, IsRequired: true, HasDefault: true},
			relation("posts", "Post", "PostToUser", true, true),
		}},
		{Name: "Post", Fields: []*load.Field{
			idField(),
			{Name: "title", Kind: load.KindScalar, Type: load.TypeString, IsRequired: true, Documentation: "@zod.min(3).max(120)"},
			{Name: "tags", Kind: load.KindScalar, Type: load.TypeString, IsList: true, IsRequired: true},
			{Name: "authorId", Kind: load.KindScalar, Type: load.TypeInt, IsRequired: true},
			relation("author", "User", "PostToUser", false, true, "authorId"),
		}},
	}, &load.Enum{Name: "Role", Values: []load.EnumValue{{Name: "ADMIN"}, {Name: "USER"}}})
}

// dealDoc is a one-to-one relation where Opportunity holds the foreign key.
func dealDoc() *load.Document {
	return load.MustNewDocument([]*load.Model{
		{Name: "Deal", Fields: []*load.Field{
			idField(),
			relation("opportunity", "Opportunity", "DealToOpportunity", false, false),
		}},
		{Name: "Opportunity", Fields: []*load.Field{
			idField(),
			{Name: "dealId", Kind: load.KindScalar, Type: load.TypeString},
			relation("deal", "Deal", "DealToOpportunity", false, false, "dealId"),
		}},
	})
}

// treeDoc is a self-referencing Category tree.
func treeDoc() *load.Document {
	return load.MustNewDocument([]*load.Model{
		{Name: "Category", Fields: []*load.Field{
			idField(),
			{Name: "parentId", Kind: load.KindScalar, Type: load.TypeInt},
			relation("parent", "Category", "Tree", false, false, "parentId"),
			relation("children", "Category", "Tree", true, true),
		}},
	})
}
