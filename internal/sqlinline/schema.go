package sqlinline

// QEnsureSchema creates the tables the API reads at startup. It is safe to run
// on every boot.
const QEnsureSchema = `--sql 9f4c7b2e-6a1d-4e3f-8b5c-d0e2a7f1c964
create table if not exists preferences (
    key        text primary key,
    value      text not null,
    updated_at timestamptz not null default now()
);

create table if not exists integration_tokens (
    provider   text primary key,
    token      text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`
