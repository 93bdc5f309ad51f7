package mcpserver

// DataModel describes the records the tools read and write, so an LLM can
// fill save_* arguments without guessing.
const DataModel = `# Atrium Data Model

## Client

| field | type   | notes               |
|-------|--------|---------------------|
| id    | string | server-assigned     |
| name  | string | required            |
| email | string | optional, user@host |
| phone | string | optional            |

## Project

| field       | type   | notes                                   |
|-------------|--------|-----------------------------------------|
| id          | string | server-assigned                         |
| name        | string | required                                |
| description | string | optional                                |
| status      | enum   | active, completed, on_hold              |
| client_id   | string | id of a client, not checked locally     |
| start_date  | date   | optional, YYYY-MM-DD                    |
| due_date    | date   | optional, YYYY-MM-DD                    |

## Task

| field       | type   | notes                                |
|-------------|--------|--------------------------------------|
| id          | string | server-assigned                      |
| project_id  | string | id of a project, not checked locally |
| title       | string | required                             |
| description | string | optional                             |
| status      | enum   | todo, in_progress, done              |
| priority    | enum   | low, medium, high                    |
| deadline    | date   | optional, YYYY-MM-DD                 |

## Rules

1. Omit ` + "`id`" + ` in save_* to create; pass it to update. Fields left out of an
   update keep their current value.
2. New projects default to status ` + "`active`" + `; new tasks to ` + "`todo`" + ` / ` + "`medium`" + `.
3. delete_* only acts when called with ` + "`confirm: true`" + `. Ask the user first.
`
