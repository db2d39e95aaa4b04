package sqlinline

const QSelectPreference = `--sql 5e9b2c7a-1d4f-4a86-b3e0-7c2d9f4a1e68
select value
from preferences
where key = $1::text
limit 1;
`

const QUpsertPreference = `--sql 0a6d3f8e-c2b1-47d9-a5e4-9b8c1f2d6e03
insert into preferences (key, value, updated_at)
values ($1::text, $2::text, now())
on conflict (key) do update set
    value = excluded.value,
    updated_at = now();
`
