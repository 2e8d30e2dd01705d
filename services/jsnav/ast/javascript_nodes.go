// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// Tree-sitter JavaScript node types.
const (
	// Program structure
	jsNodeProgram = "program"
	jsNodeComment = "comment"
	jsNodeError   = "ERROR"

	// Functions
	jsNodeFunctionDeclaration   = "function_declaration"
	jsNodeGeneratorFunctionDecl = "generator_function_declaration"
	jsNodeFunction              = "function"
	jsNodeFunctionExpression    = "function_expression"
	jsNodeGeneratorFunction     = "generator_function"
	jsNodeArrowFunction         = "arrow_function"
	jsNodeFormalParameters      = "formal_parameters"
	jsNodeStatementBlock        = "statement_block"

	// Classes
	jsNodeClassDeclaration     = "class_declaration"
	jsNodeClass                = "class"
	jsNodeClassBody            = "class_body"
	jsNodeClassHeritage        = "class_heritage"
	jsNodeMethodDefinition     = "method_definition"
	jsNodeFieldDefinition      = "field_definition"
	jsNodePropertyIdentifier   = "property_identifier"
	jsNodePrivatePropertyIdent = "private_property_identifier"
	jsNodeComputedPropertyName = "computed_property_name"

	// Declarations and assignments
	jsNodeVariableDeclarator      = "variable_declarator"
	jsNodeAssignmentExpression    = "assignment_expression"
	jsNodeAugmentedAssignmentExpr = "augmented_assignment_expression"
	jsNodeParenthesizedExpression = "parenthesized_expression"
	jsNodeIdentifier              = "identifier"
	jsNodeShorthandPropertyIdent  = "shorthand_property_identifier"
	jsNodeString                  = "string"
	jsNodeStringFragment          = "string_fragment"
	jsNodeNumber                  = "number"
	jsNodeTemplateString          = "template_string"

	// Calls and member access
	jsNodeCallExpression      = "call_expression"
	jsNodeNewExpression       = "new_expression"
	jsNodeMemberExpression    = "member_expression"
	jsNodeSubscriptExpression = "subscript_expression"

	// Keywords that change member classification
	jsNodeGet = "get"
	jsNodeSet = "set"

	// JSX node types all share this prefix.
	jsNodeJSXPrefix = "jsx_"
)
