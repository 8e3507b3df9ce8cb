// Package models defines the core domain models for RelateOS group planning.
//
// # Models
//
//   - User: Registered account; the identity every other record points at
//   - Group: A surprise planning effort for one person, joined by invite code
//   - Idea: A gift or activity proposal with a set of voters
//   - Contribution: A pledge toward the group's pool
//
// # Design Principles
//
// 1. **Store owns persistence**: models carry no behavior beyond small helpers
// 2. **Avoid circular references**: Use ID strings instead of pointers for relationships
// 3. **Append-only money**: Contributions are never edited or voided
//
// Group membership only grows. There is no leave or remove operation.
package models
